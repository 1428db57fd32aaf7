package amount

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNumeral(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"us grouping", "1,234.56", "1234.56"},
		{"european grouping", "1.234,56", "1234.56"},
		{"swiss apostrophe stripped", "1'234.56", "1234.56"},
		{"lone comma decimal", "12,50", "12.50"},
		{"lone comma grouping", "1,234", "1234"},
		{"lone dot decimal", "12.5", "12.5"},
		{"lone dot grouping", "1.234", "1234"},
		{"multi dot grouping", "1.234.567", "1234567"},
		{"plain integer", "4500", "4500"},
		{"two decimals", "99.99", "99.99"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeNumeral(tc.raw))
		})
	}
}

func TestParseNumeral(t *testing.T) {
	v, ok := ParseNumeral("1,234.56")
	assert.True(t, ok)
	assert.InDelta(t, 1234.56, v, 1e-9)

	v, ok = ParseNumeral("1.234,56")
	assert.True(t, ok)
	assert.InDelta(t, 1234.56, v, 1e-9)

	_, ok = ParseNumeral("")
	assert.False(t, ok)

	_, ok = ParseNumeral("..")
	assert.False(t, ok)
}
