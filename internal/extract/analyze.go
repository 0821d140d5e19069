package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/innkeep/innkeep/pkg/schema"
)

// Location aliases recognized in queries, mapped to the canonical names
// the hotel inventory uses. Longer aliases are checked first so
// "san francisco" wins over the "sf" substring check.
var locationAliases = []struct {
	alias    string
	location string
}{
	{"san francisco", "San Francisco, CA"},
	{"new york", "New York, NY"},
	{"los angeles", "Los Angeles, CA"},
	{"chicago", "Chicago, IL"},
	{"boston", "Boston, MA"},
	{"denver", "Denver, CO"},
	{"miami", "Miami, FL"},
	{"nyc", "New York, NY"},
	{"sf", "San Francisco, CA"},
	{"la", "Los Angeles, CA"},
}

// Amenity keywords mapped to the inventory's amenity labels.
var amenityKeywords = []struct {
	words   []string
	amenity string
}{
	{[]string{"beach", "ocean", "sea", "oceanfront"}, "Beach Access"},
	{[]string{"spa"}, "Spa"},
	{[]string{"gym", "fitness"}, "Gym"},
	{[]string{"pool"}, "Pool"},
	{[]string{"wifi", "wi-fi"}, "WiFi"},
}

const defaultMinRating = 3.0

var (
	// Budget requires either a $ amount or a budget keyword before the
	// number, so bare day numbers ("july 25") are never read as prices.
	budgetRe = regexp.MustCompile(`(?:\$\s*(\d+))|(?:\b(?:under|below|max|budget(?:\s+of)?|less than|up to)\b\s+\$?(\d+))`)
	starsRe  = regexp.MustCompile(`(\d(?:\.\d)?)\s*[- ]?star`)
	guestsRe = regexp.MustCompile(`(?:for\s+)?(\d{1,2})\s+(?:people|persons|guests|adults)`)
	wordRe   = regexp.MustCompile(`[a-z]+`)
)

// AnalyzeQuery derives structured search parameters from the query.
// Location resolution is mandatory: a query with no recognizable location
// yields VALIDATION_ERROR, which routes the run straight to the error
// handler without ever touching the search tool.
func (h *Heuristic) AnalyzeQuery(ctx context.Context, query string) (*schema.SearchParameters, error) {
	if err := ctx.Err(); err != nil {
		return nil, schema.NewError(schema.ErrCodeCancelled, "query analysis cancelled").WithCause(err)
	}

	q := strings.ToLower(query)

	location := resolveLocation(q)
	if location == "" {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"could not determine a location from %q", query).
			WithDetails(map[string]any{"query": query})
	}

	params := &schema.SearchParameters{
		Location:  location,
		MinRating: defaultMinRating,
		Guests:    2,
	}

	if m := budgetRe.FindStringSubmatch(q); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			params.MaxPrice = v
		}
	}

	if m := starsRe.FindStringSubmatch(q); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 1 && v <= 5 {
			params.MinRating = v
		}
	} else if strings.Contains(q, "highly rated") || strings.Contains(q, "top rated") {
		params.MinRating = 4.0
	}

	if m := guestsRe.FindStringSubmatch(q); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			params.Guests = v
		}
	}

	for _, kw := range amenityKeywords {
		for _, w := range kw.words {
			matched := containsWord(q, w)
			if !matched && strings.ContainsRune(w, '-') {
				matched = strings.Contains(q, w)
			}
			if matched {
				params.Amenities = append(params.Amenities, kw.amenity)
				break
			}
		}
	}

	return params, nil
}

// resolveLocation finds the first alias present in the query. Short
// aliases ("sf", "la") match only as standalone words to avoid hits
// inside unrelated text.
func resolveLocation(q string) string {
	for _, entry := range locationAliases {
		if len(entry.alias) <= 3 {
			if containsWord(q, entry.alias) {
				return entry.location
			}
			continue
		}
		if strings.Contains(q, entry.alias) {
			return entry.location
		}
	}
	return ""
}

func containsWord(q, word string) bool {
	for _, w := range wordRe.FindAllString(q, -1) {
		if w == word {
			return true
		}
	}
	return false
}
