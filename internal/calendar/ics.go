package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
)

const productID = "-//weddingday//agenda//EN"

// Options controls the iCalendar export.
type Options struct {
	Name            string
	BaseURL         string        // deep link prefix, event id appended as fragment
	DefaultDuration time.Duration // events carry no end time
	Locale          string        // translation used for summary and description
}

// Export renders a merged agenda as an iCalendar document.
func Export(agenda domain.Agenda, opts Options, stamp time.Time) string {
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = time.Hour
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetName(opts.Name)
		cal.SetXWRCalName(opts.Name)
	}

	for _, ev := range agenda.Flatten() {
		title, desc := ev.Localized(opts.Locale)

		ve := cal.AddEvent(uid(ev))
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(ev.FullDate)
		ve.SetEndAt(ev.FullDate.Add(opts.DefaultDuration))
		ve.SetSummary(title)
		if desc != "" {
			ve.SetDescription(desc)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if c := ev.Coordinates; c != nil {
			ve.SetProperty(ical.ComponentPropertyGeo, fmt.Sprintf("%.6f;%.6f", c.Lat, c.Lng))
		}
		if ev.Category != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, ev.Category)
		}
		if opts.BaseURL != "" {
			ve.SetURL(opts.BaseURL + "#event-" + ev.ID)
		}
		if !ev.UpdatedAt.IsZero() {
			ve.SetModifiedAt(ev.UpdatedAt)
		}
	}

	return cal.Serialize()
}

// uid keeps official and personal ids from colliding.
func uid(ev domain.MergedEvent) string {
	kind := "official"
	if !ev.IsOfficial {
		kind = "personal"
	}
	return fmt.Sprintf("%s-%s@weddingday", kind, ev.ID)
}
