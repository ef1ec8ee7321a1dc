package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/medlit/pubmed-search-service/internal/domain"
	"github.com/medlit/pubmed-search-service/internal/observability"
)

// maxRequestBodySize caps request bodies at 1 MB.
const maxRequestBodySize = 1 << 20

// searchRequest is the JSON request body for running a search. A raw
// query string from a history entry can be replayed instead of the
// structured criteria.
type searchRequest struct {
	Query      string   `json:"query,omitempty" validate:"max=2000"`
	Keywords   []string `json:"keywords,omitempty" validate:"max=20,dive,max=100"`
	Disease    string   `json:"disease,omitempty" validate:"max=200"`
	Operator   string   `json:"operator,omitempty" validate:"omitempty,oneof=AND OR"`
	Author     string   `json:"author,omitempty" validate:"max=200"`
	Journal    string   `json:"journal,omitempty" validate:"max=200"`
	YearFrom   int      `json:"year_from,omitempty" validate:"omitempty,min=1800,max=2100"`
	YearTo     int      `json:"year_to,omitempty" validate:"omitempty,min=1800,max=2100"`
	MaxResults int      `json:"max_results,omitempty" validate:"omitempty,min=1,max=200"`
}

// questionRequest is the JSON request body for asking a question.
type questionRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

// searchHandler handles POST /api/v1/search.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if req.Query != "" {
		rs, err := s.session.SearchRaw(r.Context(), req.Query, req.MaxResults)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, domainResultSetToResponse(rs))
		return
	}

	criteria := domain.SearchCriteria{
		Keywords:   req.Keywords,
		Disease:    req.Disease,
		Operator:   domain.BooleanOperator(req.Operator),
		Author:     req.Author,
		Journal:    req.Journal,
		YearFrom:   req.YearFrom,
		YearTo:     req.YearTo,
		MaxResults: req.MaxResults,
	}
	if criteria.YearFrom > 0 && criteria.YearTo > 0 && criteria.YearFrom > criteria.YearTo {
		writeError(w, http.StatusBadRequest, "year_from must not be after year_to")
		return
	}

	rs, err := s.session.Search(r.Context(), criteria)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainResultSetToResponse(rs))
}

// searchCountHandler handles GET /api/v1/search/count. It reports how
// many articles a query matches without fetching any of them.
func (s *Server) searchCountHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("query")

	count, err := s.session.CountMatches(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchCountResponse{
		Query:      strings.TrimSpace(q),
		TotalCount: count,
	})
}

// summariesHandler handles POST /api/v1/summaries. It generates summaries
// for every article in the current result set. Per-article failures do
// not fail the request; the affected articles carry the failed state.
func (s *Server) summariesHandler(w http.ResponseWriter, r *http.Request) {
	rs, err := s.session.Summarize(r.Context())
	if rs == nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err != nil {
		requestLogger := observability.WithRequestContext(s.logger, correlationIDFromContext(r.Context()))
		requestLogger.Warn().
			Err(err).
			Msg("batch summarization completed with failures")
	}

	writeJSON(w, http.StatusOK, domainResultSetToResponse(rs))
}

// synthesisHandler handles POST /api/v1/synthesis.
func (s *Server) synthesisHandler(w http.ResponseWriter, r *http.Request) {
	synthesis, err := s.session.Synthesize(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainSynthesisToResponse(synthesis))
}

// questionHandler handles POST /api/v1/questions.
func (s *Server) questionHandler(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	answer, err := s.session.Answer(r.Context(), req.Question)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{
		Question: req.Question,
		Answer:   answer,
	})
}

// resultsHandler handles GET /api/v1/results.
func (s *Server) resultsHandler(w http.ResponseWriter, r *http.Request) {
	rs := s.session.Results()
	if rs == nil {
		writeError(w, http.StatusNotFound, "no search has been run yet")
		return
	}
	writeJSON(w, http.StatusOK, domainResultSetToResponse(rs))
}

// historyHandler handles GET /api/v1/history.
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domainHistoryToResponse(s.session.History()))
}

// timelineHandler handles GET /api/v1/timeline.
func (s *Server) timelineHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := s.session.Timeline()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, timelineResponse{Counts: counts})
}

// exportHandler handles GET /api/v1/export/{format}. The body is the
// rendered document with a download Content-Disposition.
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")

	var (
		body        string
		contentType string
		filename    string
		err         error
	)
	switch format {
	case "markdown":
		body, err = s.session.ExportMarkdown()
		contentType = "text/markdown; charset=utf-8"
		filename = "pubmed_search_results.md"
	case "bibtex":
		body, err = s.session.ExportBibTeX()
		contentType = "application/x-bibtex; charset=utf-8"
		filename = "pubmed_search_results.bib"
	case "csv":
		body, err = s.session.ExportCSV()
		contentType = "text/csv; charset=utf-8"
		filename = "pubmed_search_results.csv"
	default:
		writeError(w, http.StatusNotFound, "unsupported export format: "+format)
		return
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// decodeAndValidate reads, unmarshals, and validates a JSON request
// body. It writes the error response itself and returns false when the
// request is bad.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			fe := validationErrs[0]
			writeError(w, http.StatusBadRequest, "invalid field "+strings.ToLower(fe.Field())+": failed "+fe.Tag()+" validation")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}

	return true
}

// writeDomainError translates a domain error into an HTTP response.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.WithRequestContext(s.logger, correlationIDFromContext(r.Context()))

	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNoResults):
		writeError(w, http.StatusNotFound, "no results available; run a search first")
	case errors.Is(err, domain.ErrAPIUnavailable):
		logger.Error().Err(err).Msg("upstream article source failed")
		writeError(w, http.StatusBadGateway, "article source is unavailable")
	case errors.Is(err, domain.ErrCompletionUnavailable):
		logger.Error().Err(err).Msg("completion provider failed")
		writeError(w, http.StatusBadGateway, "summarization service is unavailable")
	case errors.Is(err, domain.ErrMissingCredential):
		logger.Error().Err(err).Msg("missing credential")
		writeError(w, http.StatusInternalServerError, "service is misconfigured")
	default:
		logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
