package versions

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Semver
	}{
		{"1.2.3", Semver{1, 2, 3}},
		{"v2.0.1", Semver{2, 0, 1}},
		{"2.0.0-beta.1", Semver{2, 0, 0}},
		{"1", Semver{1, 0, 0}},
		{"1.7", Semver{1, 7, 0}},
		{"1.x.3", Semver{1, 0, 3}},
		{"abc", Semver{}},
		{"", Semver{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestSemver_Compare(t *testing.T) {
	assert.Equal(t, 0, Parse("1").Compare(Parse("1.0.0")))
	assert.Equal(t, -1, Parse("1.2.3").Compare(Parse("1.10.0")))
	assert.Equal(t, 1, Parse("2.0.0").Compare(Parse("1.99.99")))
	assert.Equal(t, -1, Parse("1.0.9").Compare(Parse("1.0.10")))
	assert.Equal(t, "1.7.0", Parse("1.7").String())
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1", "1.0.0", -1},
		{"1.0.0", "1", 1},
		{"1.2.0", "1.10.0", -1},
		{"2.0.0", "1.99.99", 1},
		{"1.0", "1.0.1", -1},
		{"1.x", "1.0", 1},
		{"01.0", "1.0", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}

var orderSamples = []string{
	"", "0", "1", "1.0", "1.0.0", "1.0.0.0", "01", "1.x", "1.0.1", "1.2",
	"1.10", "1.2.3", "2", "2.0.0", "10.0.0", "abc", "v1.0.0", "1.0.0-rc1",
}

func TestCompare_TotalOrder(t *testing.T) {
	for _, a := range orderSamples {
		assert.Equal(t, 0, Compare(a, a), "reflexive %q", a)
		for _, b := range orderSamples {
			ab, ba := Compare(a, b), Compare(b, a)
			assert.Equal(t, ab, -ba, "antisymmetric %q %q", a, b)
			if a != b {
				assert.NotEqual(t, 0, ab, "distinct %q %q", a, b)
			}
			for _, c := range orderSamples {
				if ab <= 0 && Compare(b, c) <= 0 {
					assert.LessOrEqual(t, Compare(a, c), 0, "transitive %q %q %q", a, b, c)
				}
			}
		}
	}
}

func TestCompare_SortIsStable(t *testing.T) {
	sorted := slices.Clone(orderSamples)
	slices.SortFunc(sorted, Compare)
	require.True(t, slices.IsSortedFunc(sorted, Compare))

	reversed := slices.Clone(orderSamples)
	slices.Reverse(reversed)
	slices.SortFunc(reversed, Compare)
	assert.Equal(t, sorted, reversed)

	assert.True(t, Less("1", "1.0.0"))
	assert.False(t, Less("1.0.0", "1"))
}
