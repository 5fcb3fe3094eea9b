package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrMalformedMonthLabel = errors.New("malformed month label")
	ErrMalformedMonthKey   = errors.New("malformed month key")
)

// monthNames are the es-MX month names, indexed by time.Month-1.
var monthNames = [12]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// monthAliases accepts spellings found in older labels.
var monthAliases = map[string]time.Month{
	"setiembre": time.September,
}

// Month is a calendar month of a year. Day and time of day never matter.
// The zero value means "no month".
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool {
	return m == Month{}
}

// AddMonths returns m shifted by n months, rolling over year boundaries.
func (m Month) AddMonths(n int) Month {
	idx := m.Year*12 + int(m.Month) - 1 + n
	year := idx / 12
	mon := idx % 12
	if mon < 0 {
		mon += 12
		year--
	}
	return Month{Year: year, Month: time.Month(mon + 1)}
}

// Prev returns the month before m.
func (m Month) Prev() Month { return m.AddMonths(-1) }

// Next returns the month after m.
func (m Month) Next() Month { return m.AddMonths(1) }

// Start returns the first instant of m in UTC.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Label returns the es-MX long form used as the payment key, e.g. "febrero de 2026".
func (m Month) Label() string {
	if m.Month < time.January || m.Month > time.December {
		return ""
	}
	return fmt.Sprintf("%s de %d", monthNames[m.Month-1], m.Year)
}

// Title returns Label with every word capitalized, e.g. "Febrero De 2026".
func (m Month) Title() string {
	return cases.Title(language.Spanish).String(m.Label())
}

// Key returns the sortable "YYYY-MM" form.
func (m Month) Key() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// String implements fmt.Stringer.
func (m Month) String() string { return m.Key() }

// ParseMonthKey parses the "YYYY-MM" form produced by Key.
func ParseMonthKey(key string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(key))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrMalformedMonthKey, key)
	}
	return MonthOf(t), nil
}

// ParseMonthLabel parses labels written by Label, tolerating case, accents,
// extra whitespace, "del" for "de", a missing connector, and known aliases.
func ParseMonthLabel(label string) (Month, error) {
	fields := strings.Fields(foldLabel(label))
	switch {
	case len(fields) == 3 && (fields[1] == "de" || fields[1] == "del"):
		fields = []string{fields[0], fields[2]}
	case len(fields) != 2:
		return Month{}, fmt.Errorf("%w: %q", ErrMalformedMonthLabel, label)
	}

	mon, ok := lookupMonthName(fields[0])
	if !ok {
		return Month{}, fmt.Errorf("%w: unknown month %q", ErrMalformedMonthLabel, fields[0])
	}
	if len(fields[1]) != 4 {
		return Month{}, fmt.Errorf("%w: year %q", ErrMalformedMonthLabel, fields[1])
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil {
		return Month{}, fmt.Errorf("%w: year %q", ErrMalformedMonthLabel, fields[1])
	}
	return Month{Year: year, Month: mon}, nil
}

func lookupMonthName(name string) (time.Month, bool) {
	for i, n := range monthNames {
		if n == name {
			return time.Month(i + 1), true
		}
	}
	m, ok := monthAliases[name]
	return m, ok
}

// foldLabel lower-cases s and strips combining marks.
func foldLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return cases.Lower(language.Spanish).String(folded)
}
