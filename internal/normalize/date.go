package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	slashDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?$`)
	monthDate = regexp.MustCompile(`(?i)^(\d{1,2})\s+(jan|fev|mar|abr|mai|jun|jul|ago|set|out|nov|dez)$`)
)

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "fev": time.February, "mar": time.March,
	"abr": time.April, "mai": time.May, "jun": time.June,
	"jul": time.July, "ago": time.August, "set": time.September,
	"out": time.October, "nov": time.November, "dez": time.December,
}

// ParseDate parses DD/MM, DD/MM/YY, DD/MM/YYYY and "DD mon" (Portuguese month
// abbreviation). Two-digit years map to 2000+YY and a missing year is taken
// from ref. Calendar-invalid dates such as 31/02 are rejected.
func ParseDate(s string, ref time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)

	if m := slashDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := ref.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if len(m[3]) == 2 {
				year += 2000
			} else if len(m[3]) == 3 {
				return time.Time{}, false
			}
		}
		return build(year, month, day)
	}

	if m := monthDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := monthAbbrev[strings.ToLower(m[2])]
		return build(ref.Year(), int(month), day)
	}

	return time.Time{}, false
}

// ParseISODate parses YYYY-MM-DD, falling back to ParseDate.
func ParseISODate(s string, ref time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if len(s) > 10 {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return ParseDate(s, ref)
}

// FormatDate renders a date as DD/MM/YY.
func FormatDate(t time.Time) string {
	return t.Format("02/01/06")
}

func build(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
