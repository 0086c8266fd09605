package phonetics

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// DoubleMetaphone builds sound-alike keys for person names.
type DoubleMetaphone struct{}

// NewDoubleMetaphone creates a Double Metaphone encoder
func NewDoubleMetaphone() *DoubleMetaphone {
	return &DoubleMetaphone{}
}

// GetMetaphone returns the primary and secondary keys of a whitespace
// separated name. Token keys are sorted so word order does not matter.
func (dm *DoubleMetaphone) GetMetaphone(text string) (primary, secondary string) {
	var ps, ss []string
	for _, tok := range strings.Fields(text) {
		p, s := matchr.DoubleMetaphone(tok)
		if p == "" && s == "" {
			continue
		}
		if s == "" {
			s = p
		}
		ps = append(ps, p)
		ss = append(ss, s)
	}
	sort.Strings(ps)
	sort.Strings(ss)
	return strings.Join(ps, " "), strings.Join(ss, " ")
}

// Match checks if two names share a primary or secondary key
func (dm *DoubleMetaphone) Match(text1, text2 string) bool {
	p1, s1 := dm.GetMetaphone(text1)
	p2, s2 := dm.GetMetaphone(text2)
	if p1 == "" || p2 == "" {
		return false
	}
	return p1 == p2 || s1 == s2
}
