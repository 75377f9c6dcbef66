package domain

import (
	"fmt"
	"net/url"
	"time"
)

// ReminderTemplate holds the fixed parts of a "starting soon" push.
type ReminderTemplate struct {
	Title    string
	BaseURL  string
	Icon     string
	Badge    string
	Location *time.Location
}

// Reminder builds the push for an upcoming official event.
func (t ReminderTemplate) Reminder(ev Event) Payload {
	loc := t.Location
	if loc == nil {
		loc = time.UTC
	}
	at := ev.Time
	if at == "" {
		at = ev.FullDate.In(loc).Format("15:04")
	}

	body := fmt.Sprintf("%s starts at %s", ev.Title, at)
	if ev.Location != "" {
		body += " at " + ev.Location
	}

	return Payload{
		Title:   t.Title,
		Body:    body,
		Icon:    t.Icon,
		Badge:   t.Badge,
		Vibrate: []int{200, 100, 200},
		Data:    PayloadData{URL: t.link(ev.ID)},
	}
}

func (t ReminderTemplate) link(id string) string {
	u, err := url.Parse(t.BaseURL)
	if err != nil {
		return t.BaseURL
	}
	u.Fragment = "event-" + id
	return u.String()
}
