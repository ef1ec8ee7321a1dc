// Package query builds PubMed E-utilities search-term strings from
// structured search criteria.
package query

import (
	"fmt"
	"strings"

	"github.com/medlit/pubmed-search-service/internal/domain"
)

// Build translates search criteria into a single PubMed query string using
// the E-utilities field-tag syntax. Keywords are quoted and grouped, the
// disease term matches both MeSH and all fields, and author/journal/date
// clauses are field-scoped. Clauses are joined with the selected boolean
// operator. The result is not URL-encoded; transport encoding happens in
// the client via url.Values.
//
// Returns domain.ErrInvalidQuery when neither a keyword nor a disease is
// supplied: such a query would be an unbounded request.
func Build(c domain.SearchCriteria) (string, error) {
	c.Normalize()
	if !c.HasTerms() {
		return "", domain.NewValidationError("criteria", "at least one keyword or a disease/condition is required")
	}

	var parts []string

	if len(c.Keywords) > 0 {
		quoted := make([]string, 0, len(c.Keywords))
		for _, kw := range c.Keywords {
			quoted = append(quoted, quote(kw))
		}
		parts = append(parts, "("+strings.Join(quoted, " ")+")")
	}

	if c.Disease != "" {
		d := quote(c.Disease)
		parts = append(parts, fmt.Sprintf("(%s[MeSH Terms] OR %s[All Fields])", d, d))
	}

	if c.YearFrom > 0 && c.YearTo > 0 {
		parts = append(parts, fmt.Sprintf("(%d[PDAT]:%d[PDAT])", c.YearFrom, c.YearTo))
	}

	if c.Author != "" {
		parts = append(parts, quote(c.Author)+"[Author]")
	}

	if c.Journal != "" {
		parts = append(parts, quote(c.Journal)+"[Journal]")
	}

	return strings.Join(parts, " "+string(c.Operator)+" "), nil
}

// quote wraps a term in double quotes, stripping any embedded quotes so a
// term cannot break out of its clause.
func quote(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, "") + `"`
}
