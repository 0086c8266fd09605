//go:build !postal

package community

// PostalAvailable reports whether this build links libpostal.
const PostalAvailable = false

func localities(string) []string { return nil }
