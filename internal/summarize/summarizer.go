// Package summarize turns fetched articles into LLM-generated summaries,
// cross-article syntheses, and grounded question answers.
package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medlit/pubmed-search-service/internal/domain"
	"github.com/medlit/pubmed-search-service/internal/llm"
	"github.com/medlit/pubmed-search-service/internal/observability"
)

// NoAbstractPlaceholder is stored as the summary for articles without an
// abstract. No completion request is made for such articles.
const NoAbstractPlaceholder = "No abstract available to summarize."

// FailedSummaryPlaceholder is stored as the summary when generation
// fails for an article during batch summarization.
const FailedSummaryPlaceholder = "Summary generation failed. Please try again later."

// Summarizer generates article summaries and result set analyses using
// a completion provider.
type Summarizer struct {
	completer llm.Completer
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// New creates a Summarizer.
func New(completer llm.Completer, logger zerolog.Logger, metrics *observability.Metrics) *Summarizer {
	return &Summarizer{
		completer: completer,
		logger:    logger.With().Str("component", "summarizer").Logger(),
		metrics:   metrics,
	}
}

// SummarizeArticle generates a summary for one article and stores it on
// the record. Articles without an abstract get a fixed placeholder and
// cost no completion request.
func (s *Summarizer) SummarizeArticle(ctx context.Context, article *domain.ArticleRecord) error {
	if article == nil {
		return fmt.Errorf("summarize: nil article")
	}

	if !article.HasAbstract() {
		article.Summary = NoAbstractPlaceholder
		article.State = domain.SummaryDone
		s.metrics.RecordSummaryGenerated("skipped")
		return nil
	}

	summary, err := s.complete(ctx, "summarize", summarySystemPrompt, summaryPrompt(article.Abstract))
	if err != nil {
		article.State = domain.SummaryFailed
		s.metrics.RecordSummaryGenerated("failed")
		return err
	}

	article.Summary = summary
	article.State = domain.SummaryDone
	s.metrics.RecordSummaryGenerated("done")
	return nil
}

// SummarizeAll generates summaries for every article in the result set,
// sequentially and in result order. A failure for one article does not
// stop the batch: the failed article gets a placeholder summary and the
// failed state, and processing continues. The returned error is the
// first per-article error encountered, or nil when all succeeded.
func (s *Summarizer) SummarizeAll(ctx context.Context, rs *domain.ResultSet) error {
	if rs == nil || len(rs.Articles) == 0 {
		return domain.ErrNoResults
	}

	var firstErr error
	for i := range rs.Articles {
		article := &rs.Articles[i]
		if article.State == domain.SummaryDone {
			continue
		}

		if err := s.SummarizeArticle(ctx, article); err != nil {
			if ctx.Err() != nil {
				return err
			}
			articleLogger := observability.WithArticleContext(s.logger, article.PMID)
			articleLogger.Warn().
				Err(err).
				Msg("summary generation failed, continuing batch")
			article.Summary = FailedSummaryPlaceholder
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Synthesize runs the three cross-article analyses (key findings,
// research gaps, clinical recommendations) over the result set and
// returns the combined synthesis. Each analysis that fails leaves its
// section empty; an error is returned only when all three fail.
func (s *Summarizer) Synthesize(ctx context.Context, rs *domain.ResultSet) (*domain.Synthesis, error) {
	if rs == nil || len(rs.Articles) == 0 {
		return nil, domain.ErrNoResults
	}

	synthesis := &domain.Synthesis{}
	var lastErr error

	if text, err := s.complete(ctx, "key_findings", findingsSystemPrompt, findingsPrompt(rs.Articles)); err != nil {
		lastErr = err
		s.logger.Warn().Err(err).Msg("key findings analysis failed")
	} else {
		synthesis.KeyFindings = parseBullets(text)
	}
	if ctx.Err() != nil {
		return nil, lastErr
	}

	if text, err := s.complete(ctx, "research_gaps", gapsSystemPrompt, gapsPrompt(rs.Articles)); err != nil {
		lastErr = err
		s.logger.Warn().Err(err).Msg("research gap analysis failed")
	} else {
		synthesis.ResearchGaps = parseBullets(text)
	}
	if ctx.Err() != nil {
		return nil, lastErr
	}

	if text, err := s.complete(ctx, "clinical_recommendations", recommendationsSystemPrompt, recommendationsPrompt(rs.Articles)); err != nil {
		lastErr = err
		s.logger.Warn().Err(err).Msg("clinical recommendation analysis failed")
	} else {
		synthesis.ClinicalRecommendations = parseBullets(text)
	}

	if synthesis.IsEmpty() {
		return nil, lastErr
	}
	return synthesis, nil
}

// AnswerQuestion answers a free-text question grounded in the fetched
// articles.
func (s *Summarizer) AnswerQuestion(ctx context.Context, rs *domain.ResultSet, question string) (string, error) {
	if rs == nil || len(rs.Articles) == 0 {
		return "", domain.ErrNoResults
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", domain.NewValidationError("question", "question must not be empty")
	}

	return s.complete(ctx, "question", questionSystemPrompt, questionPrompt(question, rs.Articles))
}

// complete runs one completion and records metrics for it.
func (s *Summarizer) complete(ctx context.Context, operation, system, user string) (string, error) {
	start := time.Now()

	result, err := s.completer.Complete(ctx, llm.Request{
		System: system,
		User:   user,
	})
	duration := time.Since(start)

	if err != nil {
		s.metrics.RecordLLMRequestFailed(operation, s.completer.Model(), errorType(err))
		return "", domain.NewCompletionError(s.completer.Provider(), operation+" request failed", err)
	}

	s.metrics.RecordLLMRequest(operation, result.Model, duration.Seconds(), result.Usage.InputTokens, result.Usage.OutputTokens)
	s.logger.Debug().
		Str("operation", operation).
		Str("model", result.Model).
		Dur("duration", duration).
		Int("input_tokens", result.Usage.InputTokens).
		Int("output_tokens", result.Usage.OutputTokens).
		Msg("completion finished")

	return result.Content, nil
}

// errorType maps a completion error to a metric label.
func errorType(err error) string {
	if llm.IsTransient(err) {
		return "transient"
	}
	return "permanent"
}
