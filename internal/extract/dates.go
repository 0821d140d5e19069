package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/innkeep/innkeep/pkg/schema"
)

const dateLayout = "2006-01-02"

// Default window when the query carries no parseable dates: one week out,
// two nights.
const (
	defaultLeadDays = 7
	defaultNights   = 2
)

var monthNumbers = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// Month names ordered longest-first so "june" is not shadowed by "jun"
// prefix handling and full names win over abbreviations.
var monthOrder = []string{
	"january", "february", "september", "november", "december",
	"october", "august", "march", "april", "july", "june",
	"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec",
}

var (
	yearRe     = regexp.MustCompile(`\b(20\d{2})\b`)
	durationRe = regexp.MustCompile(`\b(?:for\s+)?(\d{1,2})\s+(?:night|nights|day|days)\b`)
)

// ExtractDates resolves the stay window from the query text. Recognized
// forms, in priority order:
//   - "july 25 to 27", "july 25 - 27": explicit range within one month
//   - "july 25" plus "for 2 days"/"3 nights": start plus duration
//   - "july 25": start date, default two nights
//
// A date without a year resolves to the next occurrence of that calendar
// date. Queries with no recognizable date fall back to the default window
// with Defaulted set; callers surface that as an extraction fallback, not
// a failure.
func (h *Heuristic) ExtractDates(ctx context.Context, query string) (*schema.StayDates, error) {
	if err := ctx.Err(); err != nil {
		return nil, schema.NewError(schema.ErrCodeCancelled, "date extraction cancelled").WithCause(err)
	}

	today := h.now().UTC().Truncate(24 * time.Hour)
	q := strings.ToLower(query)

	month, day, endDay, ok := findMonthDay(q)
	if !ok {
		return h.defaultDates(today), nil
	}

	year, explicitYear := findYear(q)
	checkIn, err := resolveDate(year, explicitYear, month, day, today)
	if err != nil {
		return h.defaultDates(today), nil
	}

	nights := defaultNights
	switch {
	case endDay > day:
		nights = endDay - day
	default:
		if m := durationRe.FindStringSubmatch(q); m != nil {
			if n, convErr := strconv.Atoi(m[1]); convErr == nil && n > 0 {
				nights = n
			}
		}
	}

	checkOut := checkIn.AddDate(0, 0, nights)
	return &schema.StayDates{
		CheckIn:  checkIn.Format(dateLayout),
		CheckOut: checkOut.Format(dateLayout),
		Nights:   nights,
	}, nil
}

func (h *Heuristic) defaultDates(today time.Time) *schema.StayDates {
	return DefaultStay(today)
}

// DefaultStay is the stay window used when no dates can be extracted: one
// week out, two nights, flagged Defaulted. Nodes also substitute it when a
// date branch dies on its own timeout so the run can proceed degraded.
func DefaultStay(today time.Time) *schema.StayDates {
	today = today.UTC().Truncate(24 * time.Hour)
	checkIn := today.AddDate(0, 0, defaultLeadDays)
	checkOut := checkIn.AddDate(0, 0, defaultNights)
	return &schema.StayDates{
		CheckIn:   checkIn.Format(dateLayout),
		CheckOut:  checkOut.Format(dateLayout),
		Nights:    defaultNights,
		Defaulted: true,
	}
}

// findMonthDay locates the first month name followed by a day number, and
// an optional "to N"/"- N" range end.
func findMonthDay(q string) (month time.Month, day, endDay int, ok bool) {
	for _, name := range monthOrder {
		if !strings.Contains(q, name) {
			continue
		}
		re := regexp.MustCompile(fmt.Sprintf(`%s\s+(\d{1,2})(?:\s*(?:to|-|through)\s*(\d{1,2}))?`, name))
		m := re.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		day, _ = strconv.Atoi(m[1])
		if day < 1 || day > 31 {
			continue
		}
		if m[2] != "" {
			endDay, _ = strconv.Atoi(m[2])
		}
		return monthNumbers[name], day, endDay, true
	}
	return 0, 0, 0, false
}

func findYear(q string) (int, bool) {
	if m := yearRe.FindStringSubmatch(q); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y, true
	}
	return 0, false
}

// resolveDate builds the check-in date, rolling an unqualified date that
// already passed this year into the next year.
func resolveDate(year int, explicitYear bool, month time.Month, day int, today time.Time) (time.Time, error) {
	if !explicitYear {
		year = today.Year()
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, fmt.Errorf("invalid calendar date %s %d", month, day)
	}
	if !explicitYear && d.Before(today) {
		d = time.Date(year+1, month, day, 0, 0, 0, 0, time.UTC)
		if d.Month() != month || d.Day() != day {
			return time.Time{}, fmt.Errorf("invalid calendar date %s %d %d", month, day, year+1)
		}
	}
	return d, nil
}
