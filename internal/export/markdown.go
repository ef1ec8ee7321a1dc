// Package export renders a result set into downloadable formats. Every
// exporter is a pure function of its input: the same result set always
// produces byte-identical output.
package export

import (
	"fmt"
	"strings"

	"github.com/medlit/pubmed-search-service/internal/domain"
)

// Markdown renders the result set as a Markdown report: the query, one
// section per article, the synthesis when present, and a bibliography.
func Markdown(rs *domain.ResultSet) string {
	var b strings.Builder

	b.WriteString("# PubMed Search Results\n\n")
	fmt.Fprintf(&b, "**Query:** `%s`\n\n", rs.Query)
	fmt.Fprintf(&b, "**Total matches:** %d (showing %d)\n\n", rs.TotalCount, len(rs.Articles))

	for i, article := range rs.Articles {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, article.Title)
		fmt.Fprintf(&b, "- **Journal:** %s\n", orUnknown(article.Journal))
		fmt.Fprintf(&b, "- **Published:** %s\n", orUnknown(article.PubDate.String()))
		fmt.Fprintf(&b, "- **Authors:** %s\n", orUnknown(strings.Join(article.Authors, ", ")))
		fmt.Fprintf(&b, "- **PMID:** [%s](%s)\n", article.PMID, article.URL)
		if article.DOI != "" {
			fmt.Fprintf(&b, "- **DOI:** %s\n", article.DOI)
		}
		b.WriteString("\n")

		b.WriteString("### Abstract\n\n")
		if article.HasAbstract() {
			b.WriteString(article.Abstract)
		} else {
			b.WriteString("_No abstract available._")
		}
		b.WriteString("\n\n")

		if article.Summary != "" {
			b.WriteString("### Summary\n\n")
			b.WriteString(article.Summary)
			b.WriteString("\n\n")
		}

		if len(article.Keywords) > 0 {
			fmt.Fprintf(&b, "**Keywords:** %s\n\n", strings.Join(article.Keywords, ", "))
		}
	}

	if rs.Synthesis != nil && !rs.Synthesis.IsEmpty() {
		b.WriteString("## Analysis\n\n")
		writeBulletSection(&b, "Key Findings", rs.Synthesis.KeyFindings)
		writeBulletSection(&b, "Research Gaps", rs.Synthesis.ResearchGaps)
		writeBulletSection(&b, "Clinical Recommendations", rs.Synthesis.ClinicalRecommendations)
	}

	if len(rs.Articles) > 0 {
		b.WriteString("## Bibliography\n\n")
		for _, article := range rs.Articles {
			fmt.Fprintf(&b, "%s\n\n", article.Citation())
		}
	}

	return b.String()
}

func writeBulletSection(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
