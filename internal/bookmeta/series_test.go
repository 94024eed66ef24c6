package bookmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSeriesFromTitle(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		series   string
		number   int
		expected bool
	}{
		{
			name:     "tome in parentheses",
			title:    "Lanfeust de Troy (Tome 3)",
			series:   "Lanfeust de Troy",
			number:   3,
			expected: true,
		},
		{
			name:     "tome in parentheses with subtitle",
			title:    "Lanfeust de Troy (Tome 3) - Castle Gold",
			series:   "Lanfeust de Troy",
			number:   3,
			expected: true,
		},
		{
			name:     "dash separated tome with subtitle",
			title:    "Thorgal - Tome 21 - La Couronne d'Ogotaï",
			series:   "Thorgal",
			number:   21,
			expected: true,
		},
		{
			name:     "dash separated tome without subtitle",
			title:    "Thorgal - Tome 21",
			series:   "Thorgal",
			number:   21,
			expected: true,
		},
		{
			name:     "bare tome",
			title:    "Astérix Tome 5",
			series:   "Astérix",
			number:   5,
			expected: true,
		},
		{
			name:     "abbreviated T with zero padding",
			title:    "Akira T03",
			series:   "Akira",
			number:   3,
			expected: true,
		},
		{
			name:     "vol abbreviation",
			title:    "Naruto Vol. 12",
			series:   "Naruto",
			number:   12,
			expected: true,
		},
		{
			name:     "volume spelled out",
			title:    "Berserk Volume 5",
			series:   "Berserk",
			number:   5,
			expected: true,
		},
		{
			name:     "hash number",
			title:    "Saga #9",
			series:   "Saga",
			number:   9,
			expected: true,
		},
		{
			name:     "trailing bare number",
			title:    "Foundation 2",
			series:   "Foundation",
			number:   2,
			expected: true,
		},
		{
			name:     "year-like title does not parse",
			title:    "1984",
			expected: false,
		},
		{
			name:     "short series name rejected",
			title:    "Up 2",
			expected: false,
		},
		{
			name:     "plain title",
			title:    "The Count of Monte Cristo",
			expected: false,
		},
		{
			name:     "empty title",
			title:    "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ExtractSeriesFromTitle(tt.title)
			if !tt.expected {
				assert.Nil(t, info)
				return
			}
			require.NotNil(t, info)
			assert.Equal(t, tt.series, info.Series)
			assert.Equal(t, tt.number, info.Number)
		})
	}
}

func TestExtractSeriesFromTitleDropsLeadingZeros(t *testing.T) {
	info := ExtractSeriesFromTitle("Thorgal - Tome 007 - Arachnéa")
	require.NotNil(t, info)
	assert.Equal(t, "Thorgal", info.Series)
	assert.Equal(t, 7, info.Number)
}

func TestExtractSeriesFromTitleFourRuneNameAccepted(t *testing.T) {
	// A four-rune series name sits exactly on the minimum length.
	info := ExtractSeriesFromTitle("Dune 2")
	require.NotNil(t, info)
	assert.Equal(t, "Dune", info.Series)
	assert.Equal(t, 2, info.Number)
}
