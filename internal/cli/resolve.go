package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

var (
	ErrNoMatch   = errors.New("no record matches")
	ErrAmbiguous = errors.New("reference is ambiguous")
)

// matchTitle picks the title query refers to. A case-insensitive exact match
// wins; otherwise the closest fuzzy match must be unique.
func matchTitle(titles []string, query string) (int, error) {
	for i, title := range titles {
		if strings.EqualFold(title, query) {
			return i, nil
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	if len(ranks) == 0 {
		return -1, fmt.Errorf("%w %q", ErrNoMatch, query)
	}
	sort.Sort(ranks)
	if len(ranks) > 1 && ranks[0].Distance == ranks[1].Distance {
		candidates := make([]string, 0, len(ranks))
		for _, r := range ranks {
			if r.Distance != ranks[0].Distance {
				break
			}
			candidates = append(candidates, r.Target)
		}
		return -1, fmt.Errorf("%w: %q matches %s", ErrAmbiguous, query, strings.Join(candidates, ", "))
	}
	return ranks[0].OriginalIndex, nil
}
