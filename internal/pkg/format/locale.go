package format

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Vietnam has no daylight saving; a fixed zone avoids depending on tzdata.
var vietnamZone = time.FixedZone("ICT", 7*60*60)

var viPrinter = message.NewPrinter(language.Vietnamese)

const displayDateLayout = "02/01/2006"

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Currency renders a VND amount with vi-VN digit grouping, e.g. "1.250.000 ₫"
func Currency(amount int64) string {
	return viPrinter.Sprintf("%v ₫", number.Decimal(amount))
}

// Date converts an ISO-8601 timestamp to dd/MM/yyyy in Vietnam time.
// Empty input gives "", unparsable input is returned as-is.
func Date(iso string) string {
	if iso == "" {
		return ""
	}
	for _, layout := range isoLayouts {
		// zone-less timestamps from the backend are Vietnam wall-clock time
		t, err := time.ParseInLocation(layout, iso, vietnamZone)
		if err == nil {
			return t.In(vietnamZone).Format(displayDateLayout)
		}
	}
	return iso
}
