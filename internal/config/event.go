package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Event describes the single event tickets are sold for.
type Event struct {
	Name     string
	Artist   string
	Venue    string
	Location string
	StartsAt time.Time
	EndsAt   time.Time
	Price    decimal.Decimal
	Currency string
}

type eventFile struct {
	Name     string `yaml:"name"`
	Artist   string `yaml:"artist"`
	Venue    string `yaml:"venue"`
	Location string `yaml:"location"`
	StartsAt string `yaml:"starts_at"`
	EndsAt   string `yaml:"ends_at"`
	Price    string `yaml:"price"`
	Currency string `yaml:"currency"`
}

func DefaultEvent() Event {
	return Event{
		Name:     "The Money Team Live in Concert",
		Artist:   "Christoph The Change",
		Venue:    "SKD Sports Complex",
		Location: "Liberia",
		StartsAt: time.Date(2025, time.July, 26, 20, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2025, time.July, 26, 23, 0, 0, 0, time.UTC),
		Price:    decimal.RequireFromString("10.00"),
		Currency: "USD",
	}
}

// LoadEvent reads the event file at path. A missing file yields DefaultEvent;
// fields left empty in the file keep their default values.
func LoadEvent(path string) (Event, error) {
	ev := DefaultEvent()

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ev, nil
	}
	if err != nil {
		return Event{}, fmt.Errorf("read event file: %w", err)
	}

	var f eventFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Event{}, fmt.Errorf("decode event file: %w", err)
	}

	if f.Name != "" {
		ev.Name = f.Name
	}
	if f.Artist != "" {
		ev.Artist = f.Artist
	}
	if f.Venue != "" {
		ev.Venue = f.Venue
	}
	if f.Location != "" {
		ev.Location = f.Location
	}
	if f.Currency != "" {
		ev.Currency = f.Currency
	}
	if f.StartsAt != "" {
		if ev.StartsAt, err = time.Parse(time.RFC3339, f.StartsAt); err != nil {
			return Event{}, fmt.Errorf("parse starts_at: %w", err)
		}
	}
	if f.EndsAt != "" {
		if ev.EndsAt, err = time.Parse(time.RFC3339, f.EndsAt); err != nil {
			return Event{}, fmt.Errorf("parse ends_at: %w", err)
		}
	}
	if f.Price != "" {
		if ev.Price, err = decimal.NewFromString(f.Price); err != nil {
			return Event{}, fmt.Errorf("parse price: %w", err)
		}
	}
	if !ev.Price.IsPositive() {
		return Event{}, fmt.Errorf("price must be positive, got %s", ev.Price)
	}
	if ev.EndsAt.Before(ev.StartsAt) {
		return Event{}, fmt.Errorf("ends_at is before starts_at")
	}

	return ev, nil
}
