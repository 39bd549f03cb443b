package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/user/listing-watcher/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS listings (
	id            TEXT PRIMARY KEY,
	url           TEXT,
	address       TEXT,
	price         TEXT,
	price_per_m2  TEXT,
	rooms         TEXT,
	area          TEXT,
	floor         TEXT,
	distance      TEXT,
	price_change  TEXT,
	pet_friendly  BOOLEAN,
	first_seen_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_seen_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsert = `
INSERT INTO listings (id, url, address, price, price_per_m2, rooms, area, floor, distance, price_change, pet_friendly)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	price = EXCLUDED.price,
	price_per_m2 = EXCLUDED.price_per_m2,
	price_change = EXCLUDED.price_change,
	last_seen_at = now()`

// Postgres keeps a history of every distinct listing the crawler has seen.
// The archive is observational only: it plays no part in dedup or delivery
// decisions, so its failures never abort a cycle.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(ctx context.Context, connString string, logger *zap.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure listings table: %w", err)
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// SaveListings upserts the crawl result in one batch. Price fields refresh
// on conflict so the archive tracks price changes across cycles.
func (p *Postgres) SaveListings(ctx context.Context, listings []domain.Listing) error {
	batch := &pgx.Batch{}
	for _, l := range listings {
		batch.Queue(upsert,
			l.ID, l.URL, l.Address, l.Price, l.PricePerM2,
			l.Rooms, l.Area, l.Floor, l.Distance, l.PriceChange, l.PetFriendly)
	}
	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("archive %d listings: %w", len(listings), err)
	}
	p.logger.Debug("listings archived", zap.Int("count", len(listings)))
	return nil
}
