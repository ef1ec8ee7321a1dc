package export

import "github.com/medlit/pubmed-search-service/internal/domain"

// TimelineCounts aggregates the result set into a publication-year
// histogram. Articles with an unknown year are excluded.
func TimelineCounts(rs *domain.ResultSet) map[int]int {
	counts := make(map[int]int)
	for _, article := range rs.Articles {
		if article.PubDate.Year > 0 {
			counts[article.PubDate.Year]++
		}
	}
	return counts
}
