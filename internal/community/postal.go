//go:build postal

package community

import (
	postal "github.com/openvenues/gopostal/parser"
)

// PostalAvailable reports whether this build links libpostal.
const PostalAvailable = true

var localityLabels = map[string]bool{
	"suburb":         true,
	"city_district":  true,
	"city":           true,
	"state_district": true,
}

// localities returns the place components libpostal finds in an address.
func localities(raw string) []string {
	var out []string
	for _, c := range postal.ParseAddress(raw) {
		if localityLabels[c.Label] {
			out = append(out, c.Value)
		}
	}
	return out
}
