package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlit/pubmed-search-service/internal/domain"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		criteria domain.SearchCriteria
		want     string
	}{
		{
			name: "keywords only",
			criteria: domain.SearchCriteria{
				Keywords: []string{"immunotherapy", "checkpoint inhibitors"},
			},
			want: `("immunotherapy" "checkpoint inhibitors")`,
		},
		{
			name: "disease only",
			criteria: domain.SearchCriteria{
				Disease: "diabetes mellitus type 2",
			},
			want: `("diabetes mellitus type 2"[MeSH Terms] OR "diabetes mellitus type 2"[All Fields])`,
		},
		{
			name: "all clauses joined with AND",
			criteria: domain.SearchCriteria{
				Keywords: []string{"treatment"},
				Disease:  "COVID-19",
				YearFrom: 2020,
				YearTo:   2023,
				Author:   "Smith J",
				Journal:  "Lancet",
			},
			want: `("treatment") AND ("COVID-19"[MeSH Terms] OR "COVID-19"[All Fields]) AND (2020[PDAT]:2023[PDAT]) AND "Smith J"[Author] AND "Lancet"[Journal]`,
		},
		{
			name: "OR operator",
			criteria: domain.SearchCriteria{
				Keywords: []string{"guidelines"},
				Disease:  "heart failure",
				Operator: domain.OperatorOr,
			},
			want: `("guidelines") OR ("heart failure"[MeSH Terms] OR "heart failure"[All Fields])`,
		},
		{
			name: "year range needs both bounds",
			criteria: domain.SearchCriteria{
				Keywords: []string{"therapy"},
				YearFrom: 2020,
			},
			want: `("therapy")`,
		},
		{
			name: "embedded quotes are stripped",
			criteria: domain.SearchCriteria{
				Keywords: []string{`evil" OR cancer[All Fields`},
			},
			want: `("evil OR cancer[All Fields")`,
		},
		{
			name: "blank keywords are dropped",
			criteria: domain.SearchCriteria{
				Keywords: []string{"  therapy  ", "", "   "},
			},
			want: `("therapy")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRejectsEmptyCriteria(t *testing.T) {
	_, err := Build(domain.SearchCriteria{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)

	_, err = Build(domain.SearchCriteria{Author: "Smith J", YearFrom: 2020, YearTo: 2023})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}
