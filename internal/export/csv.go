package export

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/medlit/pubmed-search-service/internal/domain"
)

// csvHeader is the fixed column order of the CSV export.
var csvHeader = []string{"id", "title", "authors", "journal", "date", "abstract", "summary"}

// CSV renders the result set as RFC 4180 CSV with a fixed header row and
// one row per article in result order.
func CSV(rs *domain.ResultSet) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, article := range rs.Articles {
		row := []string{
			article.PMID,
			article.Title,
			strings.Join(article.Authors, ", "),
			article.Journal,
			article.PubDate.String(),
			article.Abstract,
			article.Summary,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
