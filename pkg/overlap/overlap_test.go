package overlap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze(t *testing.T) {
	result := Analyze(
		[]string{"A", "B", "C"},
		[]string{"B", "C", "D"},
		"ukbb", "arivale",
	)

	assert.Equal(t, []string{"B", "C"}, result.Overlap)
	assert.Equal(t, []string{"A"}, result.UniqueA)
	assert.Equal(t, []string{"D"}, result.UniqueB)
	assert.Equal(t, 3, result.CountA)
	assert.Equal(t, 3, result.CountB)
	assert.InDelta(t, 66.67, result.PercentOfA, 0.01)
	assert.InDelta(t, 66.67, result.PercentOfB, 0.01)
}

func TestAnalyzeSymmetry(t *testing.T) {
	a := []string{"P12345", "Q14213", "Q8NEV9"}
	b := []string{"Q8NEV9", "O00533"}

	ab := Analyze(a, b, "x", "y")
	ba := Analyze(b, a, "y", "x")

	assert.Equal(t, ab.Overlap, ba.Overlap)
	assert.Equal(t, ab.UniqueA, ba.UniqueB)
	assert.Equal(t, ab.UniqueB, ba.UniqueA)
	assert.LessOrEqual(t, len(ab.Overlap), len(b))
}

func TestAnalyzeEmptySides(t *testing.T) {
	result := Analyze(nil, []string{"A"}, "empty", "one")

	assert.Empty(t, result.Overlap)
	assert.Equal(t, float64(0), result.PercentOfA)
	assert.Equal(t, float64(0), result.PercentOfB)

	both := Analyze(nil, nil, "x", "y")
	assert.Equal(t, float64(0), both.PercentOfA)
	assert.Zero(t, both.CountA)
}

func TestAnalyzeDeduplicatesInputs(t *testing.T) {
	result := Analyze([]string{"A", "A", "B"}, []string{"B", "B"}, "x", "y")

	assert.Equal(t, 2, result.CountA)
	assert.Equal(t, 1, result.CountB)
	assert.Equal(t, []string{"B"}, result.Overlap)
	assert.Equal(t, float64(100), result.PercentOfB)
}

func TestAnalyzeThreeRegions(t *testing.T) {
	v := AnalyzeThree(
		[]string{"A", "AB", "AC", "ABC"},
		[]string{"B", "AB", "BC", "ABC"},
		[]string{"C", "AC", "BC", "ABC"},
		"ukbb", "arivale", "hpp",
	)

	assert.Equal(t, []string{"A"}, v.OnlyA)
	assert.Equal(t, []string{"B"}, v.OnlyB)
	assert.Equal(t, []string{"C"}, v.OnlyC)
	assert.Equal(t, []string{"AB"}, v.AB)
	assert.Equal(t, []string{"AC"}, v.AC)
	assert.Equal(t, []string{"BC"}, v.BC)
	assert.Equal(t, []string{"ABC"}, v.ABC)
}

func TestAnalyzeThreeEveryItemInOneRegion(t *testing.T) {
	a := []string{"1", "2", "3", "4"}
	b := []string{"3", "4", "5"}
	c := []string{"4", "5", "6"}

	v := AnalyzeThree(a, b, c, "a", "b", "c")

	total := len(v.OnlyA) + len(v.OnlyB) + len(v.OnlyC) +
		len(v.AB) + len(v.AC) + len(v.BC) + len(v.ABC)
	assert.Equal(t, 6, total)
	assert.Equal(t, []string{"4"}, v.ABC)
	assert.Equal(t, []string{"3"}, v.AB)
	assert.Equal(t, []string{"5"}, v.BC)
}
