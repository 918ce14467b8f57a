package favorites

import (
	"slices"
)

// NormalizeTags returns the tags sorted with duplicates and empty strings
// removed. The result is never nil so that serialized datasets always carry
// an array.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag != "" {
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// UnionTags returns the sorted set union of a and b.
func UnionTags(a, b []string) []string {
	all := make([]string, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	return NormalizeTags(all)
}

// HasTag reports whether tag is in the sorted tag set.
func HasTag(sorted []string, tag string) bool {
	_, found := slices.BinarySearch(sorted, tag)
	return found
}

// MissingTags returns the tags of want that are absent from the sorted vocabulary.
func MissingTags(vocabulary, want []string) []string {
	var missing []string
	for _, tag := range NormalizeTags(want) {
		if !HasTag(vocabulary, tag) {
			missing = append(missing, tag)
		}
	}
	return missing
}
