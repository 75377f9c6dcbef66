package timeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Mapper turns seed entries into validated official events.
type Mapper struct {
	venues   []string
	location *time.Location
}

// NewMapper validates against venues and renders display fields in loc.
func NewMapper(venues []string, loc *time.Location) *Mapper {
	if loc == nil {
		loc = time.UTC
	}
	return &Mapper{venues: venues, location: loc}
}

// MapEvents fills derived fields and validates every entry. Entries without
// an id get one derived from their title and date; duplicate ids are rejected.
func (m *Mapper) MapEvents(seed SeedFile) ([]domain.Event, error) {
	if len(seed.Events) == 0 {
		return nil, fmt.Errorf("no events found in timeline seed")
	}

	seen := make(map[string]bool, len(seed.Events))
	events := make([]domain.Event, 0, len(seed.Events))
	for i, ev := range seed.Events {
		if ev.ID == "" {
			ev.ID = slugID(ev.Title, ev.FullDate)
		}
		if seen[ev.ID] {
			return nil, fmt.Errorf("event %d: duplicate id %q: %w", i, ev.ID, domain.ErrInvalid)
		}
		seen[ev.ID] = true

		if err := ev.ValidateOfficial(m.venues); err != nil {
			return nil, fmt.Errorf("event %d (%s): %w", i, ev.ID, err)
		}

		ev = ev.WithDisplay(m.location)
		if ev.Order == 0 {
			ev.Order = i + 1
		}
		events = append(events, ev)
	}
	return events, nil
}

// slugID builds a stable id, ex: "Vin d'honneur" at 2026-06-20 -> "20260620-vin-d-honneur".
func slugID(title string, at time.Time) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	return at.UTC().Format("20060102") + "-" + slug
}
