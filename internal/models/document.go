package models

import "time"

// Document is the canonical structure stored in Elasticsearch and served by
// the API.
type Document struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Summary      string    `json:"summary,omitempty"`
	Hash         string    `json:"hash,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// RawDocument is the message the crawler publishes for every discovered link.
type RawDocument struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Summary      string `json:"summary,omitempty"`
	Hash         string `json:"hash"`
	DiscoveredAt string `json:"discovered_at"`
	RunID        string `json:"run_id,omitempty"`
}
