package timeline

import "github.com/MrSnakeDoc/weddingday/internal/domain"

// SeedFile is the top-level structure of the timeline seed YAML.
//
//	events:
//	  - id: ceremony
//	    title: Ceremony
//	    fullDate: 2026-06-20T16:00:00+02:00
//	    country: ceremony
type SeedFile struct {
	Events []domain.Event `yaml:"events"`
}
