package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ticketHub/internal/model"
)

// AllCategories is the category that matches every event.
const AllCategories = "All"

type staticFile struct {
	Events []staticEntry `yaml:"events"`
}

type staticEntry struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Date        string `yaml:"date"`
	Time        string `yaml:"time"`
	StartTS     uint64 `yaml:"start_ts"`
	Location    string `yaml:"location"`
	Price       string `yaml:"price"`
	Image       string `yaml:"image"`
	Organizer   string `yaml:"organizer"`
	Featured    bool   `yaml:"featured"`
	Category    string `yaml:"category"`
	Available   uint64 `yaml:"available"`
}

// Static is the curated, file-backed part of the catalog.
type Static struct {
	events []model.CatalogEvent
	byID   map[string]int
}

// LoadStatic reads a static catalog file. An empty path yields an empty catalog.
func LoadStatic(path string) (*Static, error) {
	if strings.TrimSpace(path) == "" {
		return NewStatic(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read static catalog: %w", err)
	}
	return ParseStatic(data)
}

// ParseStatic decodes a YAML static catalog document.
func ParseStatic(data []byte) (*Static, error) {
	var file staticFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse static catalog: %w", err)
	}

	events := make([]model.CatalogEvent, 0, len(file.Events))
	for _, entry := range file.Events {
		events = append(events, model.CatalogEvent{
			ID:             strings.TrimSpace(entry.ID),
			Title:          entry.Title,
			Description:    entry.Description,
			ImageRef:       entry.Image,
			StartTimestamp: entry.StartTS,
			DisplayDate:    entry.Date,
			DisplayTime:    entry.Time,
			Location:       entry.Location,
			DisplayPrice:   entry.Price,
			AvailableCount: entry.Available,
			OrganizerRef:   entry.Organizer,
			Category:       entry.Category,
			Featured:       entry.Featured,
		})
	}
	return NewStatic(events)
}

// NewStatic validates events and tags them LOCAL.
func NewStatic(events []model.CatalogEvent) (*Static, error) {
	s := &Static{
		events: make([]model.CatalogEvent, 0, len(events)),
		byID:   make(map[string]int, len(events)),
	}
	for i, event := range events {
		if event.ID == "" {
			return nil, fmt.Errorf("static event %d: id is required", i)
		}
		if strings.HasPrefix(event.ID, model.ChainIDPrefix) {
			return nil, fmt.Errorf("static event %s: ids must not start with %q", event.ID, model.ChainIDPrefix)
		}
		if _, ok := s.byID[event.ID]; ok {
			return nil, fmt.Errorf("static event %s: duplicate id", event.ID)
		}
		if event.Title == "" {
			return nil, fmt.Errorf("static event %s: title is required", event.ID)
		}
		if event.Category == AllCategories {
			return nil, fmt.Errorf("static event %s: category %q is reserved", event.ID, AllCategories)
		}
		event.Provenance = model.ProvenanceLocal
		event.RecordID = 0
		event.RawPrice = nil
		s.byID[event.ID] = len(s.events)
		s.events = append(s.events, event)
	}
	return s, nil
}

// Events returns a copy of the static events in file order.
func (s *Static) Events() []model.CatalogEvent {
	return append([]model.CatalogEvent(nil), s.events...)
}

func (s *Static) ByID(id string) (model.CatalogEvent, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.CatalogEvent{}, false
	}
	return s.events[i], true
}

func (s *Static) ByCategory(category string) []model.CatalogEvent {
	return FilterByCategory(s.events, category)
}

func (s *Static) Featured() []model.CatalogEvent {
	return Featured(s.events)
}

// Categories lists "All" followed by each distinct category in first-seen order.
func (s *Static) Categories() []string {
	return Categories(s.events)
}
