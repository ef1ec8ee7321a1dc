// Package domain provides domain models and the error taxonomy for the
// PubMed search and summarizer service.
package domain

import (
	"fmt"
	"strings"
)

// SummaryState tracks the lifecycle of an article's generated summary.
type SummaryState string

const (
	// SummaryPending means no summary has been requested yet.
	SummaryPending SummaryState = "pending"
	// SummaryDone means a summary was generated successfully.
	SummaryDone SummaryState = "done"
	// SummaryFailed means summary generation failed for this article.
	SummaryFailed SummaryState = "failed"
)

// ArticleRecord is the structured representation of one retrieved PubMed
// article. PMID is the natural key; it is unique within a ResultSet.
type ArticleRecord struct {
	PMID     string       `json:"pmid"`
	Title    string       `json:"title"`
	Authors  []string     `json:"authors"`
	Journal  string       `json:"journal"`
	PubDate  PartialDate  `json:"publication_date"`
	Abstract string       `json:"abstract"`
	Keywords []string     `json:"keywords,omitempty"`
	DOI      string       `json:"doi,omitempty"`
	URL      string       `json:"url"`
	Summary  string       `json:"summary,omitempty"`
	State    SummaryState `json:"summary_state"`
}

// ArticleURL derives the public PubMed page URL for a PMID.
func ArticleURL(pmid string) string {
	return "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"
}

// HasAbstract returns true if the article carries abstract text.
func (a *ArticleRecord) HasAbstract() bool {
	return strings.TrimSpace(a.Abstract) != ""
}

// Citation renders an APA-style citation line for the article.
func (a *ArticleRecord) Citation() string {
	var author string
	switch len(a.Authors) {
	case 0:
		author = "Unknown"
	case 1:
		author = a.Authors[0]
	case 2:
		author = a.Authors[0] + " & " + a.Authors[1]
	default:
		author = a.Authors[0] + " et al."
	}

	year := "n.d."
	if a.PubDate.Year > 0 {
		year = fmt.Sprintf("%d", a.PubDate.Year)
	}

	return fmt.Sprintf("%s. (%s). %s. %s. Retrieved from %s", author, year, a.Title, a.Journal, a.URL)
}
