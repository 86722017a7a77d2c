package criteria

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ptMonths maps Portuguese month names to month numbers. Accent-stripped
// spellings are included because OCR output often drops diacritics.
var ptMonths = map[string]time.Month{
	"janeiro":   time.January,
	"fevereiro": time.February,
	"marco":     time.March,
	"março":     time.March,
	"abril":     time.April,
	"maio":      time.May,
	"junho":     time.June,
	"julho":     time.July,
	"agosto":    time.August,
	"setembro":  time.September,
	"outubro":   time.October,
	"novembro":  time.November,
	"dezembro":  time.December,
}

var (
	longDatePattern  = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:de)?\s+([a-zç]+)\s*(?:de)?\s+(\d{4})`)
	slashDatePattern = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	isoDatePattern   = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
)

// ParsePortugueseDate parses the date formats that show up in Brazilian
// meeting minutes: "15 de março de 2024", "15/03/2024" and "2024-03-15".
// The result is midnight UTC.
func ParsePortugueseDate(s string) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	if m := longDatePattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, ok := ptMonths[m[2]]
		if !ok {
			return time.Time{}, fmt.Errorf("unknown month name %q", m[2])
		}
		year, _ := strconv.Atoi(m[3])
		return makeDate(year, month, day)
	}

	if m := slashDatePattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return makeDate(year, time.Month(month), day)
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return makeDate(year, time.Month(month), day)
	}

	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

func makeDate(year int, month time.Month, day int) (time.Time, error) {
	if month < time.January || month > time.December {
		return time.Time{}, fmt.Errorf("month %d out of range", month)
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. day 32), so round-trip to reject it.
	if t.Day() != day || t.Month() != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("invalid calendar date %04d-%02d-%02d", year, month, day)
	}
	return t, nil
}
