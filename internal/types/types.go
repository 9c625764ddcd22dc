package types

import (
	"time"
)

// CompanyRecord is one entry of the high-yield universe. The JSON field names
// match the data files produced by earlier revisions of the bot, so cached
// universes keep loading across upgrades.
type CompanyRecord struct {
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Symbol      string     `json:"symbol,omitempty"`
	Yield       *float64   `json:"yield,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`

	// Key is the normalized form of Name used for matching. It is derived at
	// load time and never written back to the universe file.
	Key string `json:"-"`
}

type NewsItem struct {
	UID         string
	Title       string
	Summary     string
	Link        string
	PublishedAt *time.Time
}

// Candidate is a news item that survived the recency, matching and seen-set
// filters, joined with the universe record it matched.
type Candidate struct {
	UID     string `json:"uid"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	Summary string `json:"summary"`
}

// PostCandidate is a Candidate with its rendered post text. Immutable once
// produced.
type PostCandidate struct {
	Candidate
	Post string `json:"post"`
}
