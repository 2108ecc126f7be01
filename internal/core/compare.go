package core

import (
	"tunelink/pkg/fuzzy"
)

// DefaultComparator prefers an exact match on normalized title and artist
// (case, punctuation, diacritics and featuring/edition qualifiers on titles
// ignored) and otherwise takes the first candidate, since providers already
// rank by relevance. No further scoring.
func DefaultComparator() Comparator {
	normalizer := fuzzy.NewNormalizer()

	return func(title, artist string, candidates []Track) *Track {
		if len(candidates) == 0 {
			return nil
		}

		wantTitle := normalizer.NormalizeTitle(title)
		wantArtist := normalizer.NormalizeArtist(artist)

		for i := range candidates {
			if normalizer.NormalizeTitle(candidates[i].Title) == wantTitle &&
				normalizer.NormalizeArtist(candidates[i].Artist) == wantArtist {
				return &candidates[i]
			}
		}

		return &candidates[0]
	}
}
