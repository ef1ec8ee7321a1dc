package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlit/pubmed-search-service/internal/domain"
	"github.com/medlit/pubmed-search-service/internal/llm"
	"github.com/medlit/pubmed-search-service/internal/observability"
)

// fakeCompleter returns canned responses and records the requests it saw.
type fakeCompleter struct {
	requests []llm.Request
	respond  func(req llm.Request) (*llm.Result, error)
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (*llm.Result, error) {
	f.requests = append(f.requests, req)
	if f.respond != nil {
		return f.respond(req)
	}
	return &llm.Result{Content: "Generated text.", Model: "fake-model"}, nil
}

func (f *fakeCompleter) Provider() string { return "fake" }
func (f *fakeCompleter) Model() string    { return "fake-model" }

func newTestSummarizer(namespace string, completer llm.Completer) *Summarizer {
	return New(completer, zerolog.Nop(), observability.NewMetrics(namespace))
}

func testResultSet(articles ...domain.ArticleRecord) *domain.ResultSet {
	return domain.NewResultSet(`("test")`, domain.SearchCriteria{Keywords: []string{"test"}}, len(articles), articles)
}

func TestSummarizeArticle(t *testing.T) {
	fake := &fakeCompleter{}
	s := newTestSummarizer("test_summarize_article", fake)

	article := domain.ArticleRecord{PMID: "1", Abstract: "A study of outcomes."}
	err := s.SummarizeArticle(context.Background(), &article)
	require.NoError(t, err)

	assert.Equal(t, "Generated text.", article.Summary)
	assert.Equal(t, domain.SummaryDone, article.State)
	require.Len(t, fake.requests, 1)
	assert.Equal(t, summarySystemPrompt, fake.requests[0].System)
	assert.Contains(t, fake.requests[0].User, "A study of outcomes.")
}

func TestSummarizeArticleWithoutAbstract(t *testing.T) {
	fake := &fakeCompleter{}
	s := newTestSummarizer("test_summarize_no_abstract", fake)

	article := domain.ArticleRecord{PMID: "1"}
	err := s.SummarizeArticle(context.Background(), &article)
	require.NoError(t, err)

	assert.Equal(t, NoAbstractPlaceholder, article.Summary)
	assert.Equal(t, domain.SummaryDone, article.State)
	assert.Empty(t, fake.requests, "no completion request expected without an abstract")
}

func TestSummarizeAllContinuesPastFailures(t *testing.T) {
	fake := &fakeCompleter{
		respond: func(req llm.Request) (*llm.Result, error) {
			if strings.Contains(req.User, "broken abstract") {
				return nil, &llm.APIError{Provider: "fake", StatusCode: 401, Message: "bad key"}
			}
			return &llm.Result{Content: "Summary.", Model: "fake-model"}, nil
		},
	}
	s := newTestSummarizer("test_summarize_all_failures", fake)

	rs := testResultSet(
		domain.ArticleRecord{PMID: "1", Abstract: "first abstract"},
		domain.ArticleRecord{PMID: "2", Abstract: "broken abstract"},
		domain.ArticleRecord{PMID: "3", Abstract: "third abstract"},
	)

	err := s.SummarizeAll(context.Background(), rs)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCompletionUnavailable)

	assert.Equal(t, domain.SummaryDone, rs.Articles[0].State)
	assert.Equal(t, "Summary.", rs.Articles[0].Summary)

	assert.Equal(t, domain.SummaryFailed, rs.Articles[1].State)
	assert.Equal(t, FailedSummaryPlaceholder, rs.Articles[1].Summary)

	assert.Equal(t, domain.SummaryDone, rs.Articles[2].State)
	assert.Equal(t, "Summary.", rs.Articles[2].Summary)
}

func TestSummarizeAllLogsFailedArticle(t *testing.T) {
	fake := &fakeCompleter{
		respond: func(llm.Request) (*llm.Result, error) {
			return nil, &llm.APIError{Provider: "fake", StatusCode: 500, Message: "down"}
		},
	}
	var buf bytes.Buffer
	s := New(fake, zerolog.New(&buf), observability.NewMetrics("test_summarize_all_log"))

	rs := testResultSet(domain.ArticleRecord{PMID: "12345678", Abstract: "an abstract"})
	require.Error(t, s.SummarizeAll(context.Background(), rs))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "summary generation failed, continuing batch", entry["message"])
	assert.Equal(t, "12345678", entry["pmid"])
}

func TestSummarizeAllSkipsCompleted(t *testing.T) {
	fake := &fakeCompleter{}
	s := newTestSummarizer("test_summarize_all_skips", fake)

	rs := testResultSet(
		domain.ArticleRecord{PMID: "1", Abstract: "abstract one"},
		domain.ArticleRecord{PMID: "2", Abstract: "abstract two"},
	)
	rs.Articles[0].Summary = "Already summarized."
	rs.Articles[0].State = domain.SummaryDone

	require.NoError(t, s.SummarizeAll(context.Background(), rs))
	assert.Equal(t, "Already summarized.", rs.Articles[0].Summary)
	require.Len(t, fake.requests, 1)
	assert.Contains(t, fake.requests[0].User, "abstract two")
}

func TestSummarizeAllEmptySet(t *testing.T) {
	s := newTestSummarizer("test_summarize_all_empty", &fakeCompleter{})

	err := s.SummarizeAll(context.Background(), testResultSet())
	assert.ErrorIs(t, err, domain.ErrNoResults)
}

func TestSynthesize(t *testing.T) {
	fake := &fakeCompleter{
		respond: func(req llm.Request) (*llm.Result, error) {
			var content string
			switch req.System {
			case findingsSystemPrompt:
				content = "- Finding one\n- Finding two"
			case gapsSystemPrompt:
				content = "- Gap one"
			case recommendationsSystemPrompt:
				content = "1. Recommendation one\n2. Recommendation two"
			}
			return &llm.Result{Content: content, Model: "fake-model"}, nil
		},
	}
	s := newTestSummarizer("test_synthesize", fake)

	rs := testResultSet(domain.ArticleRecord{PMID: "1", Title: "T", Abstract: "A"})
	synthesis, err := s.Synthesize(context.Background(), rs)
	require.NoError(t, err)

	assert.Equal(t, []string{"Finding one", "Finding two"}, synthesis.KeyFindings)
	assert.Equal(t, []string{"Gap one"}, synthesis.ResearchGaps)
	assert.Equal(t, []string{"Recommendation one", "Recommendation two"}, synthesis.ClinicalRecommendations)
	assert.Len(t, fake.requests, 3)
}

func TestSynthesizePartialFailure(t *testing.T) {
	fake := &fakeCompleter{
		respond: func(req llm.Request) (*llm.Result, error) {
			if req.System == gapsSystemPrompt {
				return nil, &llm.APIError{Provider: "fake", StatusCode: 500, Message: "boom"}
			}
			return &llm.Result{Content: "- Item", Model: "fake-model"}, nil
		},
	}
	s := newTestSummarizer("test_synthesize_partial", fake)

	rs := testResultSet(domain.ArticleRecord{PMID: "1", Title: "T", Abstract: "A"})
	synthesis, err := s.Synthesize(context.Background(), rs)
	require.NoError(t, err)

	assert.Equal(t, []string{"Item"}, synthesis.KeyFindings)
	assert.Empty(t, synthesis.ResearchGaps)
	assert.Equal(t, []string{"Item"}, synthesis.ClinicalRecommendations)
}

func TestSynthesizeAllFailed(t *testing.T) {
	fake := &fakeCompleter{
		respond: func(llm.Request) (*llm.Result, error) {
			return nil, &llm.APIError{Provider: "fake", StatusCode: 500, Message: "boom"}
		},
	}
	s := newTestSummarizer("test_synthesize_all_failed", fake)

	rs := testResultSet(domain.ArticleRecord{PMID: "1", Title: "T", Abstract: "A"})
	_, err := s.Synthesize(context.Background(), rs)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCompletionUnavailable)
}

func TestAnswerQuestion(t *testing.T) {
	fake := &fakeCompleter{
		respond: func(req llm.Request) (*llm.Result, error) {
			return &llm.Result{Content: "The articles suggest X.", Model: "fake-model"}, nil
		},
	}
	s := newTestSummarizer("test_answer_question", fake)

	rs := testResultSet(domain.ArticleRecord{
		PMID: "1", Title: "T", Abstract: "A", Authors: []string{"Jane Smith"}, Journal: "J",
	})

	answer, err := s.AnswerQuestion(context.Background(), rs, "What does the evidence say?")
	require.NoError(t, err)
	assert.Equal(t, "The articles suggest X.", answer)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, questionSystemPrompt, fake.requests[0].System)
	assert.Contains(t, fake.requests[0].User, "What does the evidence say?")
	assert.Contains(t, fake.requests[0].User, "Jane Smith")
}

func TestAnswerQuestionValidation(t *testing.T) {
	s := newTestSummarizer("test_answer_validation", &fakeCompleter{})

	_, err := s.AnswerQuestion(context.Background(), testResultSet(domain.ArticleRecord{PMID: "1"}), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)

	_, err = s.AnswerQuestion(context.Background(), testResultSet(), "question?")
	assert.ErrorIs(t, err, domain.ErrNoResults)
}

func TestParseBullets(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "dash bullets",
			text: "- First finding\n- Second finding\n",
			want: []string{"First finding", "Second finding"},
		},
		{
			name: "numbered list with preamble",
			text: "Here are the findings:\n1. First\n2) Second\n",
			want: []string{"First", "Second"},
		},
		{
			name: "asterisk bullets",
			text: "* Alpha\n* Beta",
			want: []string{"Alpha", "Beta"},
		},
		{
			name: "no markers falls back to lines",
			text: "First line\n\nSecond line",
			want: []string{"First line", "Second line"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseBullets(tt.text))
		})
	}
}
