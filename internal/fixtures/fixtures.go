// Package fixtures holds the static seed data for the menu collections.
package fixtures

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pageza/foodseed/backend/internal/models"
)

//go:embed data.json
var embedded []byte

type Category = models.Category

type Customization = models.Customization

// MenuItem is a menu fixture; its category and customizations are referenced by name
type MenuItem struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	ImageURL       string   `json:"image_url"`
	Price          float64  `json:"price"`
	Rating         float64  `json:"rating"`
	Calories       int      `json:"calories"`
	Protein        int      `json:"protein"`
	CategoryName   string   `json:"category_name"`
	Customizations []string `json:"customizations"`
}

// Set is a complete fixture dataset
type Set struct {
	Categories     []Category      `json:"categories"`
	Customizations []Customization `json:"customizations"`
	Menu           []MenuItem      `json:"menu"`
}

// Default returns the dataset embedded in the binary
func Default() (*Set, error) {
	return Parse(embedded)
}

// Load reads a dataset from path, or returns the embedded one when path is empty
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a JSON dataset
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Validate checks that names are present and unique and values are sane.
// Menu references are not checked here; unresolved ones are handled per item
// while seeding.
func (s *Set) Validate() error {
	var errs []error

	seen := make(map[string]bool, len(s.Categories))
	for i, c := range s.Categories {
		name := strings.TrimSpace(c.Name)
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("category %d: name is empty", i))
		case name != c.Name:
			errs = append(errs, fmt.Errorf("category %q: name has surrounding whitespace", c.Name))
		case seen[name]:
			errs = append(errs, fmt.Errorf("category %q: duplicate name", name))
		}
		seen[name] = true
	}

	seen = make(map[string]bool, len(s.Customizations))
	for i, c := range s.Customizations {
		name := strings.TrimSpace(c.Name)
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("customization %d: name is empty", i))
		case name != c.Name:
			errs = append(errs, fmt.Errorf("customization %q: name has surrounding whitespace", c.Name))
		case seen[name]:
			errs = append(errs, fmt.Errorf("customization %q: duplicate name", name))
		}
		seen[name] = true
		if !c.Type.Valid() {
			errs = append(errs, fmt.Errorf("customization %q: unknown type %q", name, c.Type))
		}
		if c.Price < 0 {
			errs = append(errs, fmt.Errorf("customization %q: negative price", name))
		}
	}

	for i, m := range s.Menu {
		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, fmt.Errorf("menu item %d: name is empty", i))
		}
		if m.Price < 0 {
			errs = append(errs, fmt.Errorf("menu item %q: negative price", m.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid fixtures: %w", errors.Join(errs...))
	}
	return nil
}
