package dub

import "path"

// Pattern is a name containing '*' wildcards, each matching any run of characters
// other than '/'.
type Pattern string

func (p Pattern) Match(name string) bool {
	ok, err := path.Match(string(p), name)
	return err == nil && ok
}

// Filter returns the names the pattern matches, in order.
func (p Pattern) Filter(names []string) []string {
	var matched []string
	for _, name := range names {
		if p.Match(name) {
			matched = append(matched, name)
		}
	}
	return matched
}
