package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialDateString(t *testing.T) {
	tests := []struct {
		name string
		date PartialDate
		want string
	}{
		{"full date", FullDate(2023, time.March, 15), "Mar 15, 2023"},
		{"month precision", MonthDate(2023, time.March), "Mar 2023"},
		{"year precision", YearDate(2023), "2023"},
		{"zero date", PartialDate{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.date.String())
		})
	}
}

func TestPartialDateIsZero(t *testing.T) {
	assert.True(t, PartialDate{}.IsZero())
	assert.False(t, YearDate(1999).IsZero())
}

func TestPartialDateMarshalJSON(t *testing.T) {
	data, err := json.Marshal(MonthDate(2021, time.November))
	require.NoError(t, err)
	assert.Equal(t, `"Nov 2021"`, string(data))

	data, err = json.Marshal(PartialDate{})
	require.NoError(t, err)
	assert.Equal(t, `""`, string(data))
}
