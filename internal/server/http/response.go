package httpserver

import (
	"time"

	"github.com/medlit/pubmed-search-service/internal/domain"
)

// Response types for JSON serialization.

type articleResponse struct {
	PMID            string   `json:"pmid"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Journal         string   `json:"journal,omitempty"`
	PublicationDate string   `json:"publication_date,omitempty"`
	Abstract        string   `json:"abstract,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	DOI             string   `json:"doi,omitempty"`
	URL             string   `json:"url"`
	Summary         string   `json:"summary,omitempty"`
	SummaryState    string   `json:"summary_state"`
	Citation        string   `json:"citation"`
}

type synthesisResponse struct {
	KeyFindings             []string `json:"key_findings"`
	ResearchGaps            []string `json:"research_gaps"`
	ClinicalRecommendations []string `json:"clinical_recommendations"`
}

type resultSetResponse struct {
	Query          string             `json:"query"`
	TotalCount     int                `json:"total_count"`
	Articles       []articleResponse  `json:"articles"`
	Synthesis      *synthesisResponse `json:"synthesis,omitempty"`
	MostRecentYear int                `json:"most_recent_year,omitempty"`
	AverageAuthors float64            `json:"average_authors,omitempty"`
	RetrievedAt    time.Time          `json:"retrieved_at"`
}

type historyEntryResponse struct {
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	Timestamp   time.Time `json:"timestamp"`
}

type historyResponse struct {
	Searches []historyEntryResponse `json:"searches"`
}

type answerResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type timelineResponse struct {
	Counts map[int]int `json:"counts"`
}

type searchCountResponse struct {
	Query      string `json:"query"`
	TotalCount int    `json:"total_count"`
}

// Converter functions

func domainArticleToResponse(a *domain.ArticleRecord) articleResponse {
	return articleResponse{
		PMID:            a.PMID,
		Title:           a.Title,
		Authors:         a.Authors,
		Journal:         a.Journal,
		PublicationDate: a.PubDate.String(),
		Abstract:        a.Abstract,
		Keywords:        a.Keywords,
		DOI:             a.DOI,
		URL:             a.URL,
		Summary:         a.Summary,
		SummaryState:    string(a.State),
		Citation:        a.Citation(),
	}
}

func domainSynthesisToResponse(s *domain.Synthesis) *synthesisResponse {
	if s == nil {
		return nil
	}
	return &synthesisResponse{
		KeyFindings:             s.KeyFindings,
		ResearchGaps:            s.ResearchGaps,
		ClinicalRecommendations: s.ClinicalRecommendations,
	}
}

func domainResultSetToResponse(rs *domain.ResultSet) resultSetResponse {
	articles := make([]articleResponse, len(rs.Articles))
	for i := range rs.Articles {
		articles[i] = domainArticleToResponse(&rs.Articles[i])
	}
	return resultSetResponse{
		Query:          rs.Query,
		TotalCount:     rs.TotalCount,
		Articles:       articles,
		Synthesis:      domainSynthesisToResponse(rs.Synthesis),
		MostRecentYear: rs.MostRecentYear(),
		AverageAuthors: rs.AverageAuthors(),
		RetrievedAt:    rs.RetrievedAt,
	}
}

func domainHistoryToResponse(entries []domain.SearchHistoryEntry) historyResponse {
	searches := make([]historyEntryResponse, len(entries))
	for i, e := range entries {
		searches[i] = historyEntryResponse{
			Query:       e.Query,
			ResultCount: e.ResultCount,
			Timestamp:   e.Timestamp,
		}
	}
	return historyResponse{Searches: searches}
}
