package domain

import (
	"strings"
	"time"
)

// BooleanOperator joins the clauses of a PubMed query.
type BooleanOperator string

const (
	// OperatorAnd requires all clauses to match.
	OperatorAnd BooleanOperator = "AND"
	// OperatorOr requires any clause to match.
	OperatorOr BooleanOperator = "OR"
)

// Search criteria bounds. PubMed efetch handles a few hundred records per
// session comfortably; the form caps well below the API's own limits.
const (
	DefaultMaxResults = 5
	MaxResultsLimit   = 200
	HistoryLimit      = 50
)

// SearchCriteria holds the structured form fields of one search. Immutable
// once submitted; constructed fresh per search.
type SearchCriteria struct {
	Keywords   []string        `json:"keywords" validate:"max=20,dive,max=100"`
	Disease    string          `json:"disease" validate:"max=200"`
	Operator   BooleanOperator `json:"operator" validate:"omitempty,oneof=AND OR"`
	Author     string          `json:"author" validate:"max=200"`
	Journal    string          `json:"journal" validate:"max=200"`
	YearFrom   int             `json:"year_from" validate:"omitempty,min=1800,max=2100"`
	YearTo     int             `json:"year_to" validate:"omitempty,min=1800,max=2100"`
	MaxResults int             `json:"max_results" validate:"omitempty,min=1,max=200"`
}

// Normalize trims whitespace, drops empty keywords, and applies defaults.
func (c *SearchCriteria) Normalize() {
	kept := c.Keywords[:0]
	for _, kw := range c.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			kept = append(kept, kw)
		}
	}
	c.Keywords = kept
	c.Disease = strings.TrimSpace(c.Disease)
	c.Author = strings.TrimSpace(c.Author)
	c.Journal = strings.TrimSpace(c.Journal)
	if c.Operator == "" {
		c.Operator = OperatorAnd
	}
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.MaxResults > MaxResultsLimit {
		c.MaxResults = MaxResultsLimit
	}
}

// HasTerms returns true if the criteria carry at least one searchable term.
// A search with neither keywords nor a disease would be an unbounded
// "fetch everything" request and is rejected.
func (c *SearchCriteria) HasTerms() bool {
	return len(c.Keywords) > 0 || c.Disease != ""
}

// SearchHistoryEntry records one past search in the session log.
type SearchHistoryEntry struct {
	Criteria    SearchCriteria `json:"criteria"`
	Query       string         `json:"query"`
	ResultCount int            `json:"result_count"`
	Timestamp   time.Time      `json:"timestamp"`
}
