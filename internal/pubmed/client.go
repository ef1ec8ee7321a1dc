package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medlit/pubmed-search-service/internal/domain"
	"github.com/medlit/pubmed-search-service/internal/observability"
)

const (
	// DefaultBaseURL is the base URL for the NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the limit without an API key (3 requests/second).
	DefaultRateLimit = 3.0

	// KeyedRateLimit is the limit NCBI grants with an API key.
	KeyedRateLimit = 10.0

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// esearchPageSize is the retmax used per esearch page.
	esearchPageSize = 100

	// efetchBatchSize caps the PMIDs per efetch call. NCBI documents 200
	// IDs as the safe GET limit.
	efetchBatchSize = 200

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 10 << 20

	// meshKeywordFallback limits MeSH descriptors used as keyword fallback.
	meshKeywordFallback = 5

	sourceName = "PubMed"
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the E-utilities base URL. Defaults to DefaultBaseURL.
	BaseURL string

	// APIKey is the optional NCBI API key for the higher rate limit.
	APIKey string

	// Timeout is the request timeout. Defaults to DefaultTimeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second. Defaults to
	// DefaultRateLimit, or KeyedRateLimit when an API key is set.
	RateLimit float64

	// BurstSize is the rate limiter burst. Defaults to the rate limit.
	BurstSize int
}

// applyDefaults fills zero fields with defaults.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
		if c.APIKey != "" {
			c.RateLimit = KeyedRateLimit
		}
	}
	if c.BurstSize == 0 {
		c.BurstSize = int(c.RateLimit)
	}
}

// Client queries the PubMed search and fetch endpoints and parses the XML
// responses into article records.
type Client struct {
	config     Config
	httpClient *HTTPClient
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// New creates a new PubMed client with the given configuration. metrics
// may be nil; request instrumentation is then skipped.
func New(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()
	return &Client{
		config: cfg,
		httpClient: NewHTTPClient(HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
		}),
		logger:  logger.With().Str("component", "pubmed-client").Logger(),
		metrics: metrics,
	}
}

// NewWithHTTPClient creates a PubMed client with a custom HTTP client,
// useful for testing against mock servers.
func NewWithHTTPClient(cfg Config, httpClient *HTTPClient, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "pubmed-client").Logger(),
		metrics:    metrics,
	}
}

// Search runs the query against esearch.fcgi and returns up to maxResults
// PMIDs in the API's return order, plus the total match count. It pages
// through results with retstart when maxResults exceeds one page. An empty
// ID list (including a PhraseNotFound response) returns zero PMIDs with a
// nil error; callers treat that as the NoResults outcome.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]string, int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, domain.NewValidationError("query", "query must not be empty")
	}
	if maxResults <= 0 {
		maxResults = domain.DefaultMaxResults
	}

	var (
		ids   []string
		total int
	)
	for offset := 0; len(ids) < maxResults; {
		retmax := maxResults - len(ids)
		if retmax > esearchPageSize {
			retmax = esearchPageSize
		}

		page, err := c.esearch(ctx, query, retmax, offset)
		if err != nil {
			return nil, 0, err
		}
		total = page.Count

		if page.ErrorList != nil && len(page.ErrorList.PhraseNotFound) > 0 {
			return nil, 0, nil
		}
		if len(page.IDList.IDs) == 0 {
			break
		}

		ids = append(ids, page.IDList.IDs...)
		offset += len(page.IDList.IDs)
		if offset >= page.Count {
			break
		}
	}

	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, total, nil
}

// Count returns the total number of articles matching the query without
// retrieving any identifiers.
func (c *Client) Count(ctx context.Context, query string) (int, error) {
	result, err := c.esearch(ctx, query, 0, 0)
	if err != nil {
		return 0, err
	}
	return result.Count, nil
}

// Fetch retrieves full article records for the given PMIDs via efetch.fcgi.
// The ID list is batched at the provider's documented cap, the batches are
// fetched sequentially, and the results are concatenated in the original
// input order.
func (c *Client) Fetch(ctx context.Context, pmids []string) ([]domain.ArticleRecord, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	byPMID := make(map[string]domain.ArticleRecord, len(pmids))
	for start := 0; start < len(pmids); start += efetchBatchSize {
		end := start + efetchBatchSize
		if end > len(pmids) {
			end = len(pmids)
		}

		set, err := c.efetch(ctx, pmids[start:end])
		if err != nil {
			return nil, err
		}
		for _, article := range set.Articles {
			rec := articleToRecord(article)
			byPMID[rec.PMID] = rec
		}
	}

	// Reassemble in the caller's order; PubMed does not guarantee efetch
	// returns articles in request order.
	records := make([]domain.ArticleRecord, 0, len(pmids))
	for _, id := range pmids {
		if rec, ok := byPMID[id]; ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// esearch performs one search page request.
func (c *Client) esearch(ctx context.Context, query string, retmax, retstart int) (*ESearchResult, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmode", "xml")
	params.Set("retmax", strconv.Itoa(retmax))
	if retstart > 0 {
		params.Set("retstart", strconv.Itoa(retstart))
	}

	var result ESearchResult
	if err := c.get(ctx, "/esearch.fcgi", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// efetch retrieves full metadata for one batch of PMIDs.
func (c *Client) efetch(ctx context.Context, pmids []string) (*PubmedArticleSet, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")
	params.Set("rettype", "abstract")

	var result PubmedArticleSet
	if err := c.get(ctx, "/efetch.fcgi", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// get issues a GET against an E-utilities endpoint and decodes the XML
// response into out. Non-200 responses and malformed XML are surfaced as
// ExternalAPIError.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	u, err := url.Parse(c.config.BaseURL + endpoint)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if c.config.APIKey != "" {
		params.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(endpoint, "network")
		return domain.NewExternalAPIError(sourceName, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.recordFailure(endpoint, "read")
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "failed to read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests && c.metrics != nil {
			c.metrics.RecordSourceRateLimited(sourceName)
		}
		c.recordFailure(endpoint, "status_"+strconv.Itoa(resp.StatusCode))
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	if err := xml.Unmarshal(body, out); err != nil {
		c.recordFailure(endpoint, "malformed_xml")
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "malformed XML response", err)
	}

	if c.metrics != nil {
		c.metrics.RecordSourceRequest(sourceName, endpoint, time.Since(start).Seconds())
	}
	c.logger.Debug().
		Str("endpoint", endpoint).
		Dur("duration", time.Since(start)).
		Msg("request completed")
	return nil
}

// recordFailure records a failed request when metrics are configured.
func (c *Client) recordFailure(endpoint, errorType string) {
	if c.metrics != nil {
		c.metrics.RecordSourceRequestFailed(sourceName, endpoint, errorType)
	}
}

// articleToRecord converts one parsed PubmedArticle into a domain record.
func articleToRecord(article PubmedArticle) domain.ArticleRecord {
	citation := article.MedlineCitation
	pmid := citation.PMID.Value

	return domain.ArticleRecord{
		PMID:     pmid,
		Title:    citation.Article.ArticleTitle,
		Authors:  extractAuthors(citation.Article.AuthorList),
		Journal:  extractJournal(citation.Article.Journal),
		PubDate:  extractPubDate(citation.Article),
		Abstract: extractAbstract(citation.Article.Abstract),
		Keywords: extractKeywords(citation),
		DOI:      extractDOI(citation.Article, article.PubmedData),
		URL:      domain.ArticleURL(pmid),
		State:    domain.SummaryPending,
	}
}

// extractAbstract concatenates the abstract sections in their labeled
// order: "BACKGROUND: ... METHODS: ...". A single unlabeled section is
// returned as-is.
func extractAbstract(abstract *Abstract) string {
	if abstract == nil || len(abstract.AbstractTexts) == 0 {
		return ""
	}

	if len(abstract.AbstractTexts) == 1 && abstract.AbstractTexts[0].Label == "" {
		return strings.TrimSpace(abstract.AbstractTexts[0].Value)
	}

	var parts []string
	for _, section := range abstract.AbstractTexts {
		text := strings.TrimSpace(section.Value)
		if text == "" {
			continue
		}
		if section.Label != "" {
			parts = append(parts, section.Label+": "+text)
		} else {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// extractAuthors normalizes the author list to "Fore Last" display names,
// falling back to initials or the collective name. Order is preserved.
func extractAuthors(list *AuthorList) []string {
	if list == nil || len(list.Authors) == 0 {
		return nil
	}

	authors := make([]string, 0, len(list.Authors))
	for _, a := range list.Authors {
		if a.ValidYN == "N" {
			continue
		}

		var name string
		switch {
		case a.CollectiveName != "":
			name = a.CollectiveName
		case a.LastName != "" && a.ForeName != "":
			name = a.ForeName + " " + a.LastName
		case a.LastName != "" && a.Initials != "":
			name = a.Initials + " " + a.LastName
		case a.LastName != "":
			name = a.LastName
		}

		if name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// extractJournal prefers the full journal title, falling back to the ISO
// abbreviation.
func extractJournal(j Journal) string {
	if j.Title != "" {
		return j.Title
	}
	return j.ISOAbbreviation
}

// extractPubDate reads the journal issue publication date, falling back to
// the article-level electronic date. Precision degrades explicitly: a
// record with only a year produces a year-precision date, never a guessed
// month or day.
func extractPubDate(article Article) domain.PartialDate {
	if d := parsePartialDate(article.Journal.JournalIssue.PubDate.Year,
		article.Journal.JournalIssue.PubDate.Month,
		article.Journal.JournalIssue.PubDate.Day); !d.IsZero() {
		return d
	}

	// MedlineDate format, e.g. "2020 Jan-Feb" or "2020-2021".
	if md := article.Journal.JournalIssue.PubDate.MedlineDate; md != "" {
		if year := yearFromMedlineDate(md); year > 0 {
			return domain.YearDate(year)
		}
	}

	for _, ad := range article.ArticleDate {
		if d := parsePartialDate(ad.Year, ad.Month, ad.Day); !d.IsZero() {
			return d
		}
	}

	return domain.PartialDate{}
}

// parsePartialDate builds a PartialDate from string components, keeping
// only the precision the record actually provides.
func parsePartialDate(year, month, day string) domain.PartialDate {
	y, err := strconv.Atoi(year)
	if err != nil || y == 0 {
		return domain.PartialDate{}
	}

	m, ok := parseMonth(month)
	if !ok {
		return domain.YearDate(y)
	}

	if d, err := strconv.Atoi(day); err == nil && d >= 1 && d <= 31 {
		return domain.FullDate(y, m, d)
	}
	return domain.MonthDate(y, m)
}

// monthNames maps month name strings to time.Month.
var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// parseMonth parses a numeric or named month. The second return value is
// false when the month is absent or unrecognized.
func parseMonth(month string) (time.Month, bool) {
	if month == "" {
		return 0, false
	}
	if m, err := strconv.Atoi(month); err == nil && m >= 1 && m <= 12 {
		return time.Month(m), true
	}
	if m, ok := monthNames[strings.ToLower(month)]; ok {
		return m, true
	}
	return 0, false
}

// yearFromMedlineDate extracts the leading year from a MedlineDate string.
func yearFromMedlineDate(medlineDate string) int {
	fields := strings.Fields(medlineDate)
	if len(fields) == 0 {
		return 0
	}
	yearStr := strings.Split(fields[0], "-")[0]
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return 0
	}
	return year
}

// extractKeywords returns the author-provided keywords, falling back to the
// first few MeSH descriptors when the record has none.
func extractKeywords(citation MedlineCitation) []string {
	if citation.KeywordList != nil && len(citation.KeywordList.Keywords) > 0 {
		keywords := make([]string, 0, len(citation.KeywordList.Keywords))
		for _, kw := range citation.KeywordList.Keywords {
			if v := strings.TrimSpace(kw.Value); v != "" {
				keywords = append(keywords, v)
			}
		}
		if len(keywords) > 0 {
			return keywords
		}
	}

	if citation.MeshHeadingList == nil {
		return nil
	}
	var keywords []string
	for _, mh := range citation.MeshHeadingList.MeshHeadings {
		if len(keywords) == meshKeywordFallback {
			break
		}
		if mh.DescriptorName.Value != "" {
			keywords = append(keywords, mh.DescriptorName.Value)
		}
	}
	return keywords
}

// extractDOI checks ELocationID first (more reliable), then the article ID
// list.
func extractDOI(article Article, pubmedData PubmedData) string {
	for _, eloc := range article.ELocationID {
		if eloc.EIdType == "doi" && (eloc.Valid == "" || eloc.Valid == "Y") {
			return eloc.Value
		}
	}
	for _, aid := range pubmedData.ArticleIdList.ArticleIds {
		if aid.IdType == "doi" {
			return aid.Value
		}
	}
	return ""
}
