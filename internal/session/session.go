// Package session holds the state of one interactive research session:
// the current result set and the search history. All actions are
// serialized; a failed action leaves the previous state intact.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medlit/pubmed-search-service/internal/domain"
	"github.com/medlit/pubmed-search-service/internal/export"
	"github.com/medlit/pubmed-search-service/internal/observability"
	"github.com/medlit/pubmed-search-service/internal/query"
)

// ArticleSource finds and fetches articles. *pubmed.Client implements it.
type ArticleSource interface {
	// Search returns matching article IDs and the total match count.
	Search(ctx context.Context, q string, maxResults int) ([]string, int, error)

	// Count returns the total match count without retrieving any IDs.
	Count(ctx context.Context, q string) (int, error)

	// Fetch retrieves full records for the given IDs, in the given order.
	Fetch(ctx context.Context, pmids []string) ([]domain.ArticleRecord, error)
}

// Analyzer generates summaries and analyses over a result set.
// *summarize.Summarizer implements it.
type Analyzer interface {
	SummarizeAll(ctx context.Context, rs *domain.ResultSet) error
	Synthesize(ctx context.Context, rs *domain.ResultSet) (*domain.Synthesis, error)
	AnswerQuestion(ctx context.Context, rs *domain.ResultSet, question string) (string, error)
}

// Session is the single research session. One action runs at a time;
// concurrent callers block until the running action finishes.
type Session struct {
	mu       sync.Mutex
	current  *domain.ResultSet
	history  []domain.SearchHistoryEntry
	source   ArticleSource
	analyzer Analyzer
	logger   zerolog.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// New creates an empty session.
func New(source ArticleSource, analyzer Analyzer, logger zerolog.Logger, metrics *observability.Metrics) *Session {
	return &Session{
		source:   source,
		analyzer: analyzer,
		logger:   logger.With().Str("component", "session").Logger(),
		metrics:  metrics,
		now:      time.Now,
	}
}

// Search builds a query from the criteria, runs it, fetches the matching
// articles, and replaces the current result set. A search that matches
// nothing succeeds with an empty result set. Any failure leaves the
// previous result set and history unchanged.
func (s *Session) Search(ctx context.Context, criteria domain.SearchCriteria) (*domain.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	criteria.Normalize()
	q, err := query.Build(criteria)
	if err != nil {
		return nil, err
	}
	return s.runSearch(ctx, criteria, q)
}

// SearchRaw reruns a previously built query string, as recorded in the
// search history, without rebuilding it from structured criteria.
func (s *Session) SearchRaw(ctx context.Context, q string, maxResults int) (*domain.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, domain.NewValidationError("query", "query must not be empty")
	}
	if maxResults <= 0 {
		maxResults = domain.DefaultMaxResults
	}
	if maxResults > domain.MaxResultsLimit {
		maxResults = domain.MaxResultsLimit
	}
	return s.runSearch(ctx, domain.SearchCriteria{MaxResults: maxResults}, q)
}

// CountMatches reports how many articles a query string matches without
// fetching any of them. Useful for previewing a history entry before
// rerunning it. Session state is untouched.
func (s *Session) CountMatches(ctx context.Context, q string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q = strings.TrimSpace(q)
	if q == "" {
		return 0, domain.NewValidationError("query", "query must not be empty")
	}
	return s.source.Count(ctx, q)
}

// runSearch executes a prepared query and replaces the session state on
// success. The caller holds the session lock.
func (s *Session) runSearch(ctx context.Context, criteria domain.SearchCriteria, q string) (*domain.ResultSet, error) {
	s.metrics.RecordSearchStarted()
	start := s.now()

	pmids, total, err := s.source.Search(ctx, q, criteria.MaxResults)
	if err != nil {
		s.metrics.RecordSearchFailed(time.Since(start).Seconds())
		return nil, err
	}

	var articles []domain.ArticleRecord
	if len(pmids) > 0 {
		articles, err = s.source.Fetch(ctx, pmids)
		if err != nil {
			s.metrics.RecordSearchFailed(time.Since(start).Seconds())
			return nil, err
		}
	}

	rs := domain.NewResultSet(q, criteria, total, articles)
	s.metrics.RecordSearchCompleted(len(rs.Articles), time.Since(start).Seconds())
	searchLogger := observability.WithSearchContext(s.logger, q, criteria.MaxResults)
	searchLogger.Info().
		Int("total_count", total).
		Int("fetched", len(rs.Articles)).
		Msg("search completed")

	s.current = rs
	s.appendHistory(domain.SearchHistoryEntry{
		Criteria:    criteria,
		Query:       q,
		ResultCount: total,
		Timestamp:   s.now().UTC(),
	})

	return s.snapshot(), nil
}

// Summarize generates summaries for every article in the current result
// set. Per-article failures do not stop the batch; the first such error
// is returned alongside the updated result set.
func (s *Session) Summarize(ctx context.Context) (*domain.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, domain.ErrNoResults
	}

	err := s.analyzer.SummarizeAll(ctx, s.current)
	return s.snapshot(), err
}

// Synthesize runs the cross-article analyses over the current result set
// and attaches the synthesis to it.
func (s *Session) Synthesize(ctx context.Context) (*domain.Synthesis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, domain.ErrNoResults
	}

	synthesis, err := s.analyzer.Synthesize(ctx, s.current)
	if err != nil {
		return nil, err
	}
	s.current.Synthesis = synthesis
	return synthesis, nil
}

// Answer answers a question grounded in the current result set.
func (s *Session) Answer(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return "", domain.ErrNoResults
	}
	return s.analyzer.AnswerQuestion(ctx, s.current, question)
}

// Results returns a snapshot of the current result set, or nil when no
// search has run yet.
func (s *Session) Results() *domain.ResultSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// History returns the recorded searches, most recent last.
func (s *Session) History() []domain.SearchHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.SearchHistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// ExportMarkdown renders the current result set as a Markdown report.
func (s *Session) ExportMarkdown() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return "", domain.ErrNoResults
	}
	s.metrics.RecordExport("markdown")
	return export.Markdown(s.current), nil
}

// ExportBibTeX renders the current result set as BibTeX entries.
func (s *Session) ExportBibTeX() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return "", domain.ErrNoResults
	}
	s.metrics.RecordExport("bibtex")
	return export.BibTeX(s.current), nil
}

// ExportCSV renders the current result set as CSV.
func (s *Session) ExportCSV() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return "", domain.ErrNoResults
	}
	s.metrics.RecordExport("csv")
	return export.CSV(s.current)
}

// Timeline returns the publication-year histogram of the current result
// set.
func (s *Session) Timeline() (map[int]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, domain.ErrNoResults
	}
	return export.TimelineCounts(s.current), nil
}

// appendHistory records a search, skipping queries already present and
// dropping the oldest entries past the history limit.
func (s *Session) appendHistory(entry domain.SearchHistoryEntry) {
	for _, existing := range s.history {
		if existing.Query == entry.Query {
			return
		}
	}
	s.history = append(s.history, entry)
	if len(s.history) > domain.HistoryLimit {
		s.history = s.history[len(s.history)-domain.HistoryLimit:]
	}
}

// snapshot copies the current result set so callers can read it outside
// the session lock.
func (s *Session) snapshot() *domain.ResultSet {
	if s.current == nil {
		return nil
	}
	rs := *s.current
	rs.Articles = make([]domain.ArticleRecord, len(s.current.Articles))
	copy(rs.Articles, s.current.Articles)
	if s.current.Synthesis != nil {
		syn := *s.current.Synthesis
		rs.Synthesis = &syn
	}
	return &rs
}
