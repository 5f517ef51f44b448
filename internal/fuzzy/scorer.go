// Package fuzzy scores free-text entity mentions against CRM record fields and
// decides when a ranked candidate list is too close to call.
package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	DefaultThreshold       = 65.0
	DefaultPhoneticGate    = 70.0
	DefaultPhoneticBoost   = 15.0
	DefaultFilterThreshold = 80.0
	DefaultAmbiguityDelta  = 10.0
	DefaultMaxCandidates   = 5
)

// Scorer blends exact, phonetic and edit-distance similarity into one score in [0,100].
type Scorer struct {
	PhoneticGate  float64
	PhoneticBoost float64
}

func NewScorer() *Scorer {
	return &Scorer{PhoneticGate: DefaultPhoneticGate, PhoneticBoost: DefaultPhoneticBoost}
}

// Score compares one query with one candidate string.
func (s *Scorer) Score(query, candidate string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	c := strings.ToLower(strings.TrimSpace(candidate))
	if q == c {
		return 100
	}
	base := math.Max(TokenSetRatio(q, c), math.Max(PartialRatio(q, c), Ratio(q, c)))
	return s.Blend(base, PhoneticMatch(q, c))
}

// Blend applies the phonetic boost to a base fuzzy score when the pair matched
// phonetically and the base clears the gate.
func (s *Scorer) Blend(base float64, phonetic bool) float64 {
	if phonetic && base >= s.PhoneticGate {
		base += s.PhoneticBoost
	}
	return clamp(base)
}

// BestScore is the maximum score of query against any of candidates, 0 for none.
func (s *Scorer) BestScore(query string, candidates []string) float64 {
	best := 0.0
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if sc := s.Score(query, c); sc > best {
			best = sc
			if best == 100 {
				break
			}
		}
	}
	return best
}

// Ratio is the Levenshtein similarity of a and b, 100·(1 − distance/longer length), rounded.
func Ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 && lb == 0 {
		return 100
	}
	if la == 0 || lb == 0 {
		return 0
	}
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	d := levenshtein.ComputeDistance(a, b)
	return math.Round(100 * (1 - float64(d)/float64(maxLen)))
}

// PartialRatio is the best Ratio of the shorter string against every window of the
// same length in the longer one.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return 0
	}
	if len(ra) == len(rb) {
		return Ratio(a, b)
	}

	short := string(ra)
	best := 0.0
	for i := 0; i+len(ra) <= len(rb); i++ {
		if r := Ratio(short, string(rb[i:i+len(ra)])); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSetRatio compares the sorted token intersection of a and b with each side's
// remainder, so word order and repeated words do not matter.
func TokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var sect, onlyA, onlyB []string
	for t := range ta {
		if tb[t] {
			sect = append(sect, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if !ta[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(sect)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(sect, " ")
	combinedA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := Ratio(combinedA, combinedB)
	if base != "" {
		best = math.Max(best, math.Max(Ratio(base, combinedA), Ratio(base, combinedB)))
	}
	return best
}

func tokenSet(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
