package pubmed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlit/pubmed-search-service/internal/domain"
)

const esearchFixture = `<?xml version="1.0" encoding="UTF-8"?>
<eSearchResult>
  <Count>42</Count>
  <RetMax>3</RetMax>
  <RetStart>0</RetStart>
  <IdList>
    <Id>11111111</Id>
    <Id>22222222</Id>
    <Id>33333333</Id>
  </IdList>
</eSearchResult>`

const esearchOverfullFixture = `<?xml version="1.0" encoding="UTF-8"?>
<eSearchResult>
  <Count>5</Count>
  <RetMax>5</RetMax>
  <RetStart>0</RetStart>
  <IdList>
    <Id>11111111</Id>
    <Id>22222222</Id>
    <Id>33333333</Id>
    <Id>44444444</Id>
    <Id>55555555</Id>
  </IdList>
</eSearchResult>`

const esearchNotFoundFixture = `<?xml version="1.0" encoding="UTF-8"?>
<eSearchResult>
  <Count>0</Count>
  <RetMax>0</RetMax>
  <RetStart>0</RetStart>
  <IdList></IdList>
  <ErrorList>
    <PhraseNotFound>nonexistent disease xyz</PhraseNotFound>
  </ErrorList>
</eSearchResult>`

const efetchFixture = `<?xml version="1.0" encoding="UTF-8"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">11111111</PMID>
      <Article>
        <Journal>
          <JournalIssue>
            <Volume>12</Volume>
            <PubDate>
              <Year>2023</Year>
              <Month>Mar</Month>
              <Day>15</Day>
            </PubDate>
          </JournalIssue>
          <Title>Journal of Clinical Immunology</Title>
          <ISOAbbreviation>J Clin Immunol</ISOAbbreviation>
        </Journal>
        <ArticleTitle>Targeted Immunomodulators in Autoimmune Disease</ArticleTitle>
        <ELocationID EIdType="doi" ValidYN="Y">10.1000/jci.2023.001</ELocationID>
        <Abstract>
          <AbstractText Label="BACKGROUND">Autoimmune disorders are rising.</AbstractText>
          <AbstractText Label="METHODS">We reviewed trial data.</AbstractText>
          <AbstractText Label="RESULTS">Targeted agents improved outcomes.</AbstractText>
        </Abstract>
        <AuthorList CompleteYN="Y">
          <Author ValidYN="Y">
            <LastName>Smith</LastName>
            <ForeName>Jane</ForeName>
            <Initials>J</Initials>
          </Author>
          <Author ValidYN="Y">
            <LastName>Lee</LastName>
            <Initials>B</Initials>
          </Author>
          <Author ValidYN="N">
            <LastName>Retracted</LastName>
            <ForeName>Author</ForeName>
          </Author>
        </AuthorList>
      </Article>
      <KeywordList>
        <Keyword>immunomodulators</Keyword>
        <Keyword>personalized medicine</Keyword>
      </KeywordList>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">11111111</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>22222222</PMID>
      <Article>
        <Journal>
          <JournalIssue>
            <PubDate>
              <MedlineDate>2020 Jan-Feb</MedlineDate>
            </PubDate>
          </JournalIssue>
          <ISOAbbreviation>Gut Microbes</ISOAbbreviation>
        </Journal>
        <ArticleTitle>Microbiota Signatures Preceding IBD Flares</ArticleTitle>
        <AuthorList>
          <Author>
            <CollectiveName>IBD Microbiome Consortium</CollectiveName>
          </Author>
        </AuthorList>
      </Article>
      <MeshHeadingList>
        <MeshHeading>
          <DescriptorName UI="D000001">Inflammatory Bowel Diseases</DescriptorName>
        </MeshHeading>
        <MeshHeading>
          <DescriptorName UI="D000002">Gastrointestinal Microbiome</DescriptorName>
        </MeshHeading>
      </MeshHeadingList>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">22222222</ArticleId>
        <ArticleId IdType="doi">10.1000/gm.2020.002</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

// newTestClient points a client at a fixture server with the rate limiter
// effectively disabled.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	httpClient := NewHTTPClient(HTTPClientConfig{
		Timeout:    5 * time.Second,
		RateLimit:  1000,
		BurstSize:  1000,
		RetryDelay: time.Millisecond,
	})
	return NewWithHTTPClient(Config{BaseURL: srv.URL}, httpClient, zerolog.Nop(), nil)
}

func TestSearch(t *testing.T) {
	var gotTerm string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/esearch.fcgi", r.URL.Path)
		gotTerm = r.URL.Query().Get("term")
		assert.Equal(t, "pubmed", r.URL.Query().Get("db"))
		_, _ = w.Write([]byte(esearchFixture))
	}))

	ids, total, err := client.Search(context.Background(), `("immunotherapy")`, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"11111111", "22222222", "33333333"}, ids)
	assert.Equal(t, 42, total)
	assert.Equal(t, `("immunotherapy")`, gotTerm)
}

func TestSearchTruncatesToMaxResults(t *testing.T) {
	var fetchedIDs string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			_, _ = w.Write([]byte(esearchOverfullFixture))
		case "/efetch.fcgi":
			fetchedIDs = r.URL.Query().Get("id")
			_, _ = w.Write([]byte(efetchFixture))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	ids, total, err := client.Search(context.Background(), `("immunotherapy")`, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"11111111", "22222222"}, ids)
	assert.Equal(t, 5, total)

	records, err := client.Fetch(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "11111111,22222222", fetchedIDs)
	assert.Equal(t, "11111111", records[0].PMID)
	assert.Equal(t, "22222222", records[1].PMID)
}

func TestSearchPhraseNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(esearchNotFoundFixture))
	}))

	ids, total, err := client.Search(context.Background(), `("nonexistent disease xyz")`, 5)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Zero(t, total)
}

func TestSearchEmptyQuery(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an empty query")
	}))

	_, _, err := client.Search(context.Background(), "   ", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestSearchServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, _, err := client.Search(context.Background(), `("therapy")`, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAPIUnavailable)
}

func TestSearchMalformedXML(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not XML"))
	}))

	_, _, err := client.Search(context.Background(), `("therapy")`, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAPIUnavailable)

	var apiErr *domain.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "PubMed", apiErr.Source)
}

func TestCount(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("retmax"))
		_, _ = w.Write([]byte(esearchFixture))
	}))

	count, err := client.Count(context.Background(), `("immunotherapy")`)
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestFetch(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/efetch.fcgi", r.URL.Path)
		assert.Equal(t, "11111111,22222222", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(efetchFixture))
	}))

	records, err := client.Fetch(context.Background(), []string{"11111111", "22222222"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "11111111", first.PMID)
	assert.Equal(t, "Targeted Immunomodulators in Autoimmune Disease", first.Title)
	assert.Equal(t, "Journal of Clinical Immunology", first.Journal)
	assert.Equal(t, []string{"Jane Smith", "B Lee"}, first.Authors)
	assert.Equal(t,
		"BACKGROUND: Autoimmune disorders are rising. METHODS: We reviewed trial data. RESULTS: Targeted agents improved outcomes.",
		first.Abstract)
	assert.Equal(t, "Mar 15, 2023", first.PubDate.String())
	assert.Equal(t, []string{"immunomodulators", "personalized medicine"}, first.Keywords)
	assert.Equal(t, "10.1000/jci.2023.001", first.DOI)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/11111111/", first.URL)
	assert.Equal(t, domain.SummaryPending, first.State)

	second := records[1]
	assert.Equal(t, "22222222", second.PMID)
	assert.Equal(t, "Gut Microbes", second.Journal)
	assert.Equal(t, []string{"IBD Microbiome Consortium"}, second.Authors)
	assert.Empty(t, second.Abstract)
	assert.Equal(t, "2020", second.PubDate.String())
	assert.Equal(t, []string{"Inflammatory Bowel Diseases", "Gastrointestinal Microbiome"}, second.Keywords)
	assert.Equal(t, "10.1000/gm.2020.002", second.DOI)
}

func TestFetchPreservesRequestOrder(t *testing.T) {
	// The fixture returns 11111111 before 22222222; requesting the
	// reverse order must yield the reverse order.
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(efetchFixture))
	}))

	records, err := client.Fetch(context.Background(), []string{"22222222", "11111111"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "22222222", records[0].PMID)
	assert.Equal(t, "11111111", records[1].PMID)
}

func TestFetchEmptyInput(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an empty PMID list")
	}))

	records, err := client.Fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAPIKeyIsSent(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api_key")
		_, _ = w.Write([]byte(esearchFixture))
	}))
	defer srv.Close()

	httpClient := NewHTTPClient(HTTPClientConfig{RateLimit: 1000, BurstSize: 1000})
	client := NewWithHTTPClient(Config{BaseURL: srv.URL, APIKey: "secret-key"}, httpClient, zerolog.Nop(), nil)

	_, _, err := client.Search(context.Background(), `("therapy")`, 3)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", gotKey)
}

func TestParsePartialDate(t *testing.T) {
	tests := []struct {
		name             string
		year, month, day string
		want             string
	}{
		{"full date numeric month", "2023", "3", "15", "Mar 15, 2023"},
		{"full date named month", "2023", "Mar", "15", "Mar 15, 2023"},
		{"month precision", "2023", "Mar", "", "Mar 2023"},
		{"year only", "2023", "", "", "2023"},
		{"unrecognized month degrades to year", "2023", "Spring", "10", "2023"},
		{"no year", "", "Mar", "15", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePartialDate(tt.year, tt.month, tt.day).String())
		})
	}
}

func TestYearFromMedlineDate(t *testing.T) {
	assert.Equal(t, 2020, yearFromMedlineDate("2020 Jan-Feb"))
	assert.Equal(t, 2020, yearFromMedlineDate("2020-2021"))
	assert.Equal(t, 0, yearFromMedlineDate("Winter"))
	assert.Equal(t, 0, yearFromMedlineDate(""))
}
