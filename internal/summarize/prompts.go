package summarize

import (
	"fmt"
	"strings"

	"github.com/medlit/pubmed-search-service/internal/domain"
)

const (
	summarySystemPrompt = "You are a medical research summarizer. Create concise, accurate summaries that capture the key findings and implications."

	questionSystemPrompt = "You are a medical research assistant. Provide factual, accurate answers based only on the provided medical literature. Be clear about limitations when information is insufficient."

	findingsSystemPrompt = "You are a medical research analyst. Identify key findings and patterns across multiple research articles."

	gapsSystemPrompt = "You are a medical research strategist. Identify important gaps in the current research landscape."

	recommendationsSystemPrompt = "You are a medical research consultant. Provide evidence-based clinical recommendations based on research findings."
)

// summaryMaxLength is the character budget communicated to the model for
// a single abstract summary.
const summaryMaxLength = 300

// summaryPrompt builds the user prompt for summarizing one abstract.
func summaryPrompt(abstract string) string {
	return fmt.Sprintf("Summarize the following medical abstract in about 2-3 sentences (maximum %d characters):\n\n%s", summaryMaxLength, abstract)
}

// questionPrompt builds the user prompt for answering a question grounded
// in the fetched articles. The context includes titles, abstracts,
// authors, and publication details.
func questionPrompt(question string, articles []domain.ArticleRecord) string {
	var context strings.Builder
	for i, article := range articles {
		fmt.Fprintf(&context, "Article %d: %s\n", i+1, article.Title)
		fmt.Fprintf(&context, "Abstract: %s\n", article.Abstract)
		fmt.Fprintf(&context, "Authors: %s\n", strings.Join(article.Authors, ", "))
		fmt.Fprintf(&context, "Publication: %s, %s\n\n", article.Journal, article.PubDate.String())
	}

	return fmt.Sprintf(`Based on these medical research articles, please answer the following question:

Context articles:
%s

Question: %s

Answer the question factually based only on the information provided in these articles. If the articles don't contain relevant information to answer the question, clearly state that it cannot be answered from the provided context.`, context.String(), question)
}

// findingsPrompt builds the user prompt for extracting key findings
// across the result set.
func findingsPrompt(articles []domain.ArticleRecord) string {
	return fmt.Sprintf(`Analyze these medical research articles and identify the 3-5 most important findings or trends across them:

%s

Format your response as bullet points, focusing on clinically relevant insights and consensus findings.`, titleAbstractContext(articles))
}

// gapsPrompt builds the user prompt for identifying research gaps.
func gapsPrompt(articles []domain.ArticleRecord) string {
	return fmt.Sprintf(`Based on these medical research articles, identify 2-4 important research gaps or unanswered questions:

%s

Format your response as bullet points, focusing on clinically relevant gaps that future research should address.`, titleAbstractContext(articles))
}

// recommendationsPrompt builds the user prompt for clinical practice
// recommendations.
func recommendationsPrompt(articles []domain.ArticleRecord) string {
	return fmt.Sprintf(`Based on these medical research articles, suggest 3-4 evidence-based clinical recommendations:

%s

Format your response as bullet points with brief explanations, focusing on practical applications for clinicians. Be clear about the strength of evidence.`, titleAbstractContext(articles))
}

// titleAbstractContext renders the compact article context used by the
// cross-article analysis prompts.
func titleAbstractContext(articles []domain.ArticleRecord) string {
	var context strings.Builder
	for i, article := range articles {
		fmt.Fprintf(&context, "Article %d: %s\n", i+1, article.Title)
		fmt.Fprintf(&context, "Abstract: %s\n\n", article.Abstract)
	}
	return context.String()
}

// parseBullets splits a bullet-formatted completion into individual
// items. Leading list markers (-, *, numbered) are stripped; blank lines
// and non-list preamble shorter than a sentence are dropped only when
// bullet markers are present elsewhere in the text.
func parseBullets(text string) []string {
	lines := strings.Split(text, "\n")

	var items []string
	var hasMarkers bool
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if stripped, ok := stripListMarker(trimmed); ok {
			hasMarkers = true
			if stripped != "" {
				items = append(items, stripped)
			}
		}
	}
	if hasMarkers {
		return items
	}

	// No list markers at all. Fall back to one item per non-empty line
	// so the caller still gets usable content.
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// stripListMarker removes a leading bullet or numbered-list marker from
// a line. The second return value reports whether a marker was found.
func stripListMarker(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):]), true
		}
	}
	// Numbered markers: "1. ", "2) ".
	for i, r := range line {
		if r >= '0' && r <= '9' {
			continue
		}
		if i > 0 && (r == '.' || r == ')') {
			rest := line[i+1:]
			if strings.HasPrefix(rest, " ") {
				return strings.TrimSpace(rest), true
			}
		}
		break
	}
	return line, false
}
