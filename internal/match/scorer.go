package match

import (
	"math"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Weights of the combo ratio. Token-set dominates so that missing or extra
// tokens (titles, second surnames) cost less than different spellings.
const (
	TokenSetWeight  = 0.7
	TokenSortWeight = 0.3
)

// Score returns the combo ratio of two normalized names, an integer in [0,100].
func Score(a, b string) int {
	set := float64(TokenSetRatio(a, b))
	sorted := float64(TokenSortRatio(a, b))

	// Keep the products as separate float64 values so the sum is not fused.
	return int(math.Floor(float64(TokenSetWeight*set) + float64(TokenSortWeight*sorted)))
}

// Best returns the index of the choice scoring highest against query and its
// score. Ties keep the first occurrence. Index is -1 when choices is empty.
func Best(query string, choices []string) (int, int) {
	best, bestScore := -1, -1
	for i, c := range choices {
		if s := Score(query, c); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestScore
}

// TokenSortRatio compares the names after sorting their tokens.
func TokenSortRatio(a, b string) int {
	a, b = fullProcess(a), fullProcess(b)
	if a == "" || b == "" {
		return 0
	}
	return ratio(sortedJoin(strings.Fields(a)), sortedJoin(strings.Fields(b)))
}

// TokenSetRatio compares the shared tokens against each side's remainder,
// so one name being a subset of the other still scores 100.
func TokenSetRatio(a, b string) int {
	a, b = fullProcess(a), fullProcess(b)
	if a == "" || b == "" {
		return 0
	}

	setA := tokenSet(a)
	setB := tokenSet(b)

	var common, onlyA, onlyB []string
	for tok := range setA {
		if setB[tok] {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if !setA[tok] {
			onlyB = append(onlyB, tok)
		}
	}

	t0 := sortedJoin(common)
	t1 := strings.TrimSpace(t0 + " " + sortedJoin(onlyA))
	t2 := strings.TrimSpace(t0 + " " + sortedJoin(onlyB))

	return max(ratio(t0, t1), ratio(t0, t2), ratio(t1, t2))
}

// ratio is the indel similarity of two strings scaled to 0-100, rounding
// halves to even. Either side empty scores 0.
func ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	total := len(a) + len(b)
	dist := edlib.LCSEditDistance(a, b)
	return int(math.RoundToEven(100 * (float64(total-dist) / float64(total))))
}

// fullProcess keeps ASCII letters, digits and underscores, turns every other
// ASCII rune into a space and drops non-ASCII runes.
func fullProcess(s string) string {
	b := strings.Builder{}
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 0x80:
			continue
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func sortedJoin(tokens []string) string {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}
