package deliver

import (
	"fmt"

	"github.com/user/listing-watcher/internal/domain"
)

// FormatMessage renders one listing into the HTML message sent to the chat.
func FormatMessage(l domain.Listing) string {
	link := l.URL
	if link == "" {
		link = "#"
	}
	return fmt.Sprintf(
		"📍 <b>%s</b>\n"+
			"💰 Цена: %s\n"+
			"🛏 Комнаты: %s, 🏡 Площадь: %s м²\n"+
			"🏢 Этаж: %s\n"+
			"🔗 <a href='%s'>Ссылка на объявление</a>",
		orDash(l.Address), orDash(l.Price), orDash(l.Rooms),
		orDash(l.Area), orDash(l.Floor), link)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
