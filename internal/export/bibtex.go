package export

import (
	"fmt"
	"strings"

	"github.com/medlit/pubmed-search-service/internal/domain"
)

// BibTeX renders the result set as @article entries. Citation keys are
// the first author's surname (lowercased, non-letters stripped) plus the
// publication year; colliding keys get b, c, ... suffixes in result
// order.
func BibTeX(rs *domain.ResultSet) string {
	var b strings.Builder

	seen := make(map[string]int)
	for _, article := range rs.Articles {
		key := citationKey(&article)
		seen[key]++
		if n := seen[key]; n > 1 {
			// Second occurrence gets "b", third "c", and so on.
			key += string(rune('a' + n - 1))
		}

		fmt.Fprintf(&b, "@article{%s,\n", key)
		writeBibField(&b, "title", article.Title)
		writeBibField(&b, "author", strings.Join(article.Authors, " and "))
		writeBibField(&b, "journal", article.Journal)
		if article.PubDate.Year > 0 {
			writeBibField(&b, "year", fmt.Sprintf("%d", article.PubDate.Year))
		}
		writeBibField(&b, "doi", article.DOI)
		writeBibField(&b, "url", article.URL)
		writeBibField(&b, "note", "PMID: "+article.PMID)
		b.WriteString("}\n\n")
	}

	return b.String()
}

// citationKey derives the base citation key for an article.
func citationKey(article *domain.ArticleRecord) string {
	surname := "unknown"
	if len(article.Authors) > 0 {
		name := article.Authors[0]
		if idx := strings.LastIndex(name, " "); idx >= 0 {
			name = name[idx+1:]
		}
		if cleaned := lettersOnly(strings.ToLower(name)); cleaned != "" {
			surname = cleaned
		}
	}

	if article.PubDate.Year > 0 {
		return fmt.Sprintf("%s%d", surname, article.PubDate.Year)
	}
	return surname
}

// lettersOnly strips everything that is not an ASCII letter.
func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// writeBibField writes one field line, skipping empty values and
// escaping braces so the entry stays parseable.
func writeBibField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	value = strings.ReplaceAll(value, "{", "\\{")
	value = strings.ReplaceAll(value, "}", "\\}")
	fmt.Fprintf(b, "  %s = {%s},\n", name, value)
}
