package timeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
	"github.com/MrSnakeDoc/weddingday/internal/logger"
)

const seedYAML = `events:
  - id: ceremony
    title: Ceremony
    translations:
      fr:
        title: Cérémonie
    location: Town hall
    coordinates:
      lat: 48.85
      lng: 2.35
    fullDate: 2026-06-20T14:00:00Z
    country: ceremony
  - title: Vin d'honneur
    fullDate: 2026-06-20T16:30:00Z
    country: celebration
`

var venues = []string{"ceremony", "celebration"}

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create seed file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	seed, err := NewLoader(writeSeed(t, seedYAML)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(seed.Events) != 2 {
		t.Fatalf("Load() returned %d events, want 2", len(seed.Events))
	}

	first := seed.Events[0]
	if title, _ := first.Localized("fr"); title != "Cérémonie" {
		t.Errorf("fr title = %q", title)
	}
	if first.Coordinates == nil || first.Coordinates.Lat != 48.85 {
		t.Errorf("coordinates = %+v", first.Coordinates)
	}
	if !first.FullDate.Equal(time.Date(2026, 6, 20, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("fullDate = %v", first.FullDate)
	}
}

func TestLoaderRejectsUnknownKeys(t *testing.T) {
	_, err := NewLoader(writeSeed(t, "events:\n  - title: X\n    colour: red\n")).Load()
	if err == nil {
		t.Fatal("expected an error for unknown keys")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load(); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestMapEvents(t *testing.T) {
	seed, err := NewLoader(writeSeed(t, seedYAML)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	paris, _ := time.LoadLocation("Europe/Paris")
	events, err := NewMapper(venues, paris).MapEvents(seed)
	if err != nil {
		t.Fatalf("MapEvents() error = %v", err)
	}

	tests := []struct {
		idx   int
		id    string
		time  string
		order int
	}{
		{idx: 0, id: "ceremony", time: "16:00", order: 1},
		{idx: 1, id: "20260620-vin-d-honneur", time: "18:30", order: 2},
	}
	for _, tt := range tests {
		ev := events[tt.idx]
		if ev.ID != tt.id {
			t.Errorf("events[%d].ID = %q, want %q", tt.idx, ev.ID, tt.id)
		}
		if ev.Time != tt.time {
			t.Errorf("events[%d].Time = %q, want %q", tt.idx, ev.Time, tt.time)
		}
		if ev.Order != tt.order {
			t.Errorf("events[%d].Order = %d, want %d", tt.idx, ev.Order, tt.order)
		}
		if ev.Date != "Saturday 20 June" {
			t.Errorf("events[%d].Date = %q", tt.idx, ev.Date)
		}
	}
}

func TestMapEventsRejectsInvalid(t *testing.T) {
	at := time.Date(2026, 6, 20, 14, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		seed SeedFile
	}{
		{name: "empty", seed: SeedFile{}},
		{name: "unknown venue", seed: SeedFile{Events: []domain.Event{{ID: "a", Title: "A", FullDate: at, Country: "moon"}}}},
		{name: "missing date", seed: SeedFile{Events: []domain.Event{{ID: "a", Title: "A", Country: "ceremony"}}}},
		{name: "duplicate id", seed: SeedFile{Events: []domain.Event{
			{ID: "a", Title: "A", FullDate: at, Country: "ceremony"},
			{ID: "a", Title: "B", FullDate: at, Country: "ceremony"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMapper(venues, nil).MapEvents(tt.seed); err == nil {
				t.Error("MapEvents() should have failed")
			}
		})
	}
}

type recordingWriter struct {
	path   string
	events []domain.Event
	err    error
}

func (w *recordingWriter) SaveEventsMany(_ context.Context, path string, events []domain.Event) error {
	w.path, w.events = path, events
	return w.err
}

func TestSeed(t *testing.T) {
	path := writeSeed(t, seedYAML)
	w := &recordingWriter{}

	n, err := Seed(context.Background(), NewLoader(path), NewMapper(venues, nil), w, "timeline", logger.New("error", false))
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if n != 2 || len(w.events) != 2 || w.path != "timeline" {
		t.Errorf("Seed() = %d, wrote %d events to %q", n, len(w.events), w.path)
	}

	w.err = errors.New("redis down")
	if _, err := Seed(context.Background(), NewLoader(path), NewMapper(venues, nil), w, "timeline", logger.New("error", false)); !errors.Is(err, w.err) {
		t.Errorf("Seed() error = %v, want wrapped writer error", err)
	}
}
