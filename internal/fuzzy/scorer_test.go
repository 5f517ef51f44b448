package fuzzy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Scorer
// ==========================

func TestScorer_ExactMatchIgnoresCaseAndSpace(t *testing.T) {
	s := NewScorer()
	assert.Equal(t, 100.0, s.Score("Acme Corp", "  acme CORP "))
	assert.Equal(t, 100.0, s.Score("jane@acme.com", "JANE@ACME.COM"))
}

func TestScorer_ScoreIsBounded(t *testing.T) {
	s := NewScorer()
	pairs := [][2]string{
		{"", ""},
		{"", "acme"},
		{"acme", ""},
		{"a", "b"},
		{"acme corporation", "acme"},
		{"Jon Smyth", "John Smith"},
		{"über café", "uber cafe"},
		{"12345", "555-0100"},
		{"the the the", "the"},
	}
	for _, p := range pairs {
		score := s.Score(p[0], p[1])
		assert.GreaterOrEqual(t, score, 0.0, "%q vs %q", p[0], p[1])
		assert.LessOrEqual(t, score, 100.0, "%q vs %q", p[0], p[1])
	}
}

func TestScorer_Blend(t *testing.T) {
	s := NewScorer()
	tests := []struct {
		name     string
		base     float64
		phonetic bool
		want     float64
	}{
		{"phonetic above gate is boosted", 75, true, 90},
		{"no phonetic match keeps base", 75, false, 75},
		{"phonetic below gate keeps base", 69, true, 69},
		{"phonetic at gate is boosted", 70, true, 85},
		{"boost capped at 100", 95, true, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Blend(tt.base, tt.phonetic))
		})
	}
}

func TestScorer_PhoneticBoostApplied(t *testing.T) {
	s := NewScorer()
	q, c := "jon smyth", "john smith"

	base := math.Max(TokenSetRatio(q, c), math.Max(PartialRatio(q, c), Ratio(q, c)))
	assert.GreaterOrEqual(t, base, 70.0)
	assert.True(t, PhoneticMatch(q, c))
	assert.Equal(t, math.Min(100, base+15), s.Score("Jon Smyth", "John Smith"))
}

func TestScorer_CustomPolicy(t *testing.T) {
	s := &Scorer{PhoneticGate: 50, PhoneticBoost: 5}
	assert.Equal(t, 60.0, s.Blend(55, true))
	assert.Equal(t, 45.0, s.Blend(45, true))
}

func TestScorer_BestScore(t *testing.T) {
	s := NewScorer()
	assert.Equal(t, 0.0, s.BestScore("acme", nil))
	assert.Equal(t, 100.0, s.BestScore("acme", []string{"zebra", "", "ACME"}))
}

// ==========================
// Ratios
// ==========================

func TestRatio(t *testing.T) {
	assert.Equal(t, 57.0, Ratio("kitten", "sitting"))
	assert.Equal(t, 100.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("", "x"))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 100.0, PartialRatio("acme", "acme corporation"))
	assert.Equal(t, 100.0, PartialRatio("acme corporation", "acme"))
	assert.Equal(t, 0.0, PartialRatio("", "acme"))
	assert.Equal(t, Ratio("abcd", "abce"), PartialRatio("abcd", "abce"))
}

func TestTokenSetRatio(t *testing.T) {
	assert.Equal(t, 100.0, TokenSetRatio("corp acme", "acme corp"))
	assert.Equal(t, 100.0, TokenSetRatio("acme acme corp", "corp, acme"))
	assert.Equal(t, 100.0, TokenSetRatio("acme", "acme holdings group"))
	assert.Equal(t, 0.0, TokenSetRatio("", "acme"))
	assert.Less(t, TokenSetRatio("acme", "globex"), 50.0)
}

// ==========================
// Phonetic codes
// ==========================

func TestSoundex(t *testing.T) {
	tests := map[string]string{
		"Robert":   "R163",
		"Rupert":   "R163",
		"Ashcraft": "A261",
		"Tymczak":  "T522",
		"Pfister":  "P236",
		"Lee":      "L000",
		"":         "",
		"123":      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Soundex(in), in)
	}
}

func TestMetaphone(t *testing.T) {
	assert.Equal(t, "SM0", Metaphone("Smith"))
	assert.Equal(t, Metaphone("Smith"), Metaphone("Smyth"))
	assert.Equal(t, "K0RN", Metaphone("Catherine"))
	assert.Equal(t, Metaphone("Catherine"), Metaphone("Katherine"))
	assert.Equal(t, "JN SM0", Metaphone("John Smith"))
	assert.Equal(t, "", Metaphone("  "))
}

func TestPhoneticMatch(t *testing.T) {
	assert.True(t, PhoneticMatch("smith", "smyth"))
	assert.True(t, PhoneticMatch("robert", "rupert"))
	assert.False(t, PhoneticMatch("acme", "zebra"))
	assert.False(t, PhoneticMatch("", ""))
	assert.False(t, PhoneticMatch("42", "42"))
}
