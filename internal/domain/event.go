package domain

import (
	"slices"
	"strings"
	"time"
)

// CategoryPersonal labels itinerary entries in a merged agenda.
const CategoryPersonal = "personal"

type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// LocalizedText overrides title and description for one locale.
type LocalizedText struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Event is both an official timeline event and a personal itinerary entry.
// Official events carry Country and Order; itinerary entries leave them empty.
type Event struct {
	ID           string                   `json:"id" yaml:"id"`
	Title        string                   `json:"title" yaml:"title"`
	Description  string                   `json:"description,omitempty" yaml:"description,omitempty"`
	Translations map[string]LocalizedText `json:"translations,omitempty" yaml:"translations,omitempty"`
	Location     string                   `json:"location,omitempty" yaml:"location,omitempty"`
	Coordinates  *Coordinates             `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	Date         string                   `json:"date,omitempty" yaml:"date,omitempty"`
	Time         string                   `json:"time,omitempty" yaml:"time,omitempty"`
	FullDate     time.Time                `json:"fullDate" yaml:"fullDate"`
	Order        int                      `json:"order,omitempty" yaml:"order,omitempty"`
	Country      string                   `json:"country,omitempty" yaml:"country,omitempty"`
	CreatedAt    time.Time                `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time                `json:"updatedAt" yaml:"-"`
}

// Localized returns the title and description for locale, falling back to the defaults.
func (e Event) Localized(locale string) (string, string) {
	title, desc := e.Title, e.Description
	if t, ok := e.Translations[locale]; ok {
		if t.Title != "" {
			title = t.Title
		}
		if t.Description != "" {
			desc = t.Description
		}
	}
	return title, desc
}

// WithDisplay fills empty Date and Time from FullDate rendered in loc.
func (e Event) WithDisplay(loc *time.Location) Event {
	if loc == nil {
		loc = time.UTC
	}
	local := e.FullDate.In(loc)
	if e.Date == "" {
		e.Date = local.Format("Monday 2 January")
	}
	if e.Time == "" {
		e.Time = local.Format("15:04")
	}
	return e
}

// ValidateOfficial checks an admin-curated timeline event.
func (e Event) ValidateOfficial(venues []string) error {
	var p problems
	e.validateCommon(&p)
	p.add(!slices.Contains(venues, e.Country), "country must be one of "+strings.Join(venues, ", "))
	return p.err()
}

// ValidatePersonal checks a personal itinerary entry.
func (e Event) ValidatePersonal() error {
	var p problems
	e.validateCommon(&p)
	p.add(e.Country != "", "country is reserved for official events")
	return p.err()
}

func (e Event) validateCommon(p *problems) {
	p.add(strings.TrimSpace(e.Title) == "", "title is required")
	p.add(e.FullDate.IsZero(), "fullDate must be a valid instant")
	if c := e.Coordinates; c != nil {
		p.add(c.Lat < -90 || c.Lat > 90, "coordinates.lat out of range")
		p.add(c.Lng < -180 || c.Lng > 180, "coordinates.lng out of range")
	}
}

// MergedEvent is the read-only projection shown in a merged agenda.
type MergedEvent struct {
	Event
	IsOfficial bool   `json:"isOfficial"`
	Category   string `json:"category"`
}
