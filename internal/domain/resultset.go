package domain

import "time"

// Synthesis holds the cross-article artifacts derived once per ResultSet.
type Synthesis struct {
	KeyFindings             []string `json:"key_findings"`
	ResearchGaps            []string `json:"research_gaps"`
	ClinicalRecommendations []string `json:"clinical_recommendations"`
}

// IsEmpty returns true if no synthesis has been generated yet.
func (s Synthesis) IsEmpty() bool {
	return len(s.KeyFindings) == 0 && len(s.ResearchGaps) == 0 && len(s.ClinicalRecommendations) == 0
}

// ResultSet is the ordered outcome of one search: the articles in API return
// order plus derived cross-article artifacts. It is replaced wholesale on
// each new search.
type ResultSet struct {
	Query       string          `json:"query"`
	Criteria    SearchCriteria  `json:"criteria"`
	TotalCount  int             `json:"total_count"`
	Articles    []ArticleRecord `json:"articles"`
	Synthesis   *Synthesis      `json:"synthesis,omitempty"`
	RetrievedAt time.Time       `json:"retrieved_at"`
}

// NewResultSet builds a ResultSet, deduplicating articles by PMID while
// preserving the original order (first occurrence wins). PubMed identifiers
// are globally unique; duplicates only appear if the same ID was fetched
// twice.
func NewResultSet(query string, criteria SearchCriteria, totalCount int, articles []ArticleRecord) *ResultSet {
	seen := make(map[string]bool, len(articles))
	deduped := make([]ArticleRecord, 0, len(articles))
	for _, a := range articles {
		if seen[a.PMID] {
			continue
		}
		seen[a.PMID] = true
		if a.State == "" {
			a.State = SummaryPending
		}
		deduped = append(deduped, a)
	}

	return &ResultSet{
		Query:       query,
		Criteria:    criteria,
		TotalCount:  totalCount,
		Articles:    deduped,
		RetrievedAt: time.Now().UTC(),
	}
}

// Article returns a pointer to the article with the given PMID, or nil.
func (rs *ResultSet) Article(pmid string) *ArticleRecord {
	for i := range rs.Articles {
		if rs.Articles[i].PMID == pmid {
			return &rs.Articles[i]
		}
	}
	return nil
}

// MostRecentYear returns the latest known publication year, or 0.
func (rs *ResultSet) MostRecentYear() int {
	year := 0
	for i := range rs.Articles {
		if y := rs.Articles[i].PubDate.Year; y > year {
			year = y
		}
	}
	return year
}

// AverageAuthors returns the mean author count per article, or 0 for an
// empty set.
func (rs *ResultSet) AverageAuthors() float64 {
	if len(rs.Articles) == 0 {
		return 0
	}
	total := 0
	for i := range rs.Articles {
		total += len(rs.Articles[i].Authors)
	}
	return float64(total) / float64(len(rs.Articles))
}
