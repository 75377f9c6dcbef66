package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle of a scheduled notification.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool { return s == StatusSent || s == StatusFailed }

type PayloadData struct {
	URL string `json:"url"`
}

type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Payload is the JSON document delivered to a device.
type Payload struct {
	Title   string      `json:"title"`
	Body    string      `json:"body"`
	Icon    string      `json:"icon,omitempty"`
	Badge   string      `json:"badge,omitempty"`
	Image   string      `json:"image,omitempty"`
	Vibrate []int       `json:"vibrate,omitempty"`
	Data    PayloadData `json:"data"`
	Actions []Action    `json:"actions,omitempty"`
}

// Validate checks the fields every payload needs.
func (p Payload) Validate() error {
	var pr problems
	pr.add(strings.TrimSpace(p.Title) == "", "title is required")
	pr.add(strings.TrimSpace(p.Body) == "", "body is required")
	for i, v := range p.Vibrate {
		pr.add(v < 0, fmt.Sprintf("vibrate[%d] must be >= 0", i))
	}
	for i, a := range p.Actions {
		pr.add(a.Action == "" || a.Title == "", fmt.Sprintf("actions[%d] needs action and title", i))
	}
	return pr.err()
}

// MarshalJSON keeps the distinction between an absent array and an empty
// one: nil vibrate/actions are omitted, empty ones are written as [].
func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Title   string      `json:"title"`
		Body    string      `json:"body"`
		Icon    string      `json:"icon,omitempty"`
		Badge   string      `json:"badge,omitempty"`
		Image   string      `json:"image,omitempty"`
		Vibrate *[]int      `json:"vibrate,omitempty"`
		Data    PayloadData `json:"data"`
		Actions *[]Action   `json:"actions,omitempty"`
	}{
		Title:   p.Title,
		Body:    p.Body,
		Icon:    p.Icon,
		Badge:   p.Badge,
		Image:   p.Image,
		Vibrate: present(p.Vibrate),
		Data:    p.Data,
		Actions: present(p.Actions),
	})
}

func present[T any](s []T) *[]T {
	if s == nil {
		return nil
	}
	return &s
}

// WithDefaults fills icon and badge when the sender left them empty.
func (p Payload) WithDefaults(icon, badge string) Payload {
	if p.Icon == "" {
		p.Icon = icon
	}
	if p.Badge == "" {
		p.Badge = badge
	}
	return p
}

// Value stores the payload as jsonb.
func (p Payload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan reads a jsonb payload.
func (p *Payload) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = Payload{}
		return nil
	default:
		return fmt.Errorf("payload: unsupported scan type %T", src)
	}
}

// ScheduledNotification is a one-off push queued by an admin.
type ScheduledNotification struct {
	ID           string     `json:"id" db:"id"`
	Payload      Payload    `json:"payload" db:"payload"`
	ScheduledFor time.Time  `json:"scheduled_for" db:"scheduled_for"`
	Status       Status     `json:"status" db:"status"`
	SentAt       *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Due reports whether a pending notification should fire at now.
func (n ScheduledNotification) Due(now time.Time) bool {
	return n.Status == StatusPending && !n.ScheduledFor.After(now)
}

// Source identifies what produced a push, for the history log.
type Source string

const (
	SourceBroadcast Source = "broadcast"
	SourceScheduled Source = "scheduled"
	SourceReminder  Source = "reminder"
	SourceTest      Source = "test"
)

// TargetAll is the history target for broadcasts.
const TargetAll = "all"

// HistoryEntry records one fan-out for the admin dashboard.
type HistoryEntry struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	URL       string    `json:"url" db:"url"`
	Source    Source    `json:"source" db:"source"`
	Target    string    `json:"target" db:"target"`
	Attempted int       `json:"attempted" db:"attempted"`
	Delivered int       `json:"delivered" db:"delivered"`
	Failed    int       `json:"failed" db:"failed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
