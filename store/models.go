package store

import "time"

// ConfigSummary lists a saved configuration without its body.
type ConfigSummary struct {
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	Active    bool      `json:"active"`
}

// DefaultConfigName is the name the seed configuration is stored under.
const DefaultConfigName = "default"
