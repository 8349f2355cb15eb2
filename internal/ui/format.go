package ui

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-client/internal/domain"
)

var genitiveMonths = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// FormatDate turns "2019-03-10 03:20:41" into "10 марта 2019 г. в 03:20".
// Values that do not parse are returned unchanged.
func FormatDate(s string) string {
	t, err := time.Parse(domain.TimestampLayout, s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%02d %s %d г. в %02d:%02d",
		t.Day(), genitiveMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}
