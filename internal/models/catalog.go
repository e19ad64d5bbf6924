package models

import (
	_ "embed"
	"fmt"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog holds the fixed campus reference data offered by profile forms.
type Catalog struct {
	Branches          []string            `yaml:"branches"`
	Clubs             map[Campus][]string `yaml:"clubs"`
	AdmissionYearSpan int                 `yaml:"admissionYearSpan"`
}

// DefaultCatalog is decoded from the embedded catalog document at init.
var DefaultCatalog = mustLoadCatalog(catalogYAML)

// LoadCatalog decodes a catalog document.
func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for campus := range c.Clubs {
		if !campus.Valid() {
			return nil, fmt.Errorf("catalog lists clubs for unknown campus %q", campus)
		}
	}
	if c.AdmissionYearSpan <= 0 {
		c.AdmissionYearSpan = 15
	}
	return &c, nil
}

func mustLoadCatalog(data []byte) *Catalog {
	c, err := LoadCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

// ClubsFor returns the clubs selectable on the given campus.
func (c *Catalog) ClubsFor(campus Campus) []string {
	return c.Clubs[campus]
}

// IsClubOf reports whether club belongs to campus.
func (c *Catalog) IsClubOf(campus Campus, club string) bool {
	return slices.Contains(c.Clubs[campus], club)
}

// AdmissionYears lists the selectable admission years, newest first.
func (c *Catalog) AdmissionYears(now time.Time) []int {
	years := make([]int, 0, c.AdmissionYearSpan)
	for i := 0; i < c.AdmissionYearSpan; i++ {
		years = append(years, now.Year()-i)
	}
	return years
}
