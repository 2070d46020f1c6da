package meta

import (
	"context"
	"strings"

	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/source"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

// maxNarrowing bounds how many trailing words are dropped from a title
// that finds nothing.
const maxNarrowing = 3

// titles returns the distinct names a show is known by, preferred first.
func (i infoWire) titles() []string {
	names := append([]string{i.Title.English, i.Title.Romaji, i.Title.Native}, i.Synonyms...)
	names = lo.Map(names, func(n string, _ int) string {
		return strings.TrimSpace(n)
	})
	return lo.Uniq(lo.Compact(names))
}

// match finds the target provider id of a catalog entry.
func (s *Source) match(ctx context.Context, info infoWire) (string, error) {
	names := info.titles()
	if len(names) == 0 {
		return "", source.Malformed("meta: catalog entry %s has no title", info.ID)
	}

	query := names[0]
	for try := 0; try <= maxNarrowing; try++ {
		results, err := s.search(ctx, query)
		if err != nil {
			return "", err
		}

		if len(results) > 0 {
			return closest(names, results).ID, nil
		}

		words := strings.Fields(query)
		if len(words) <= 2 {
			break
		}

		query = strings.Join(words[:len(words)-1], " ")
		log.Infof(`No results found on %s for "%s", trying "%s"`, s.cfg.Target, names[0], query)
	}

	return "", source.Malformed("meta: %s has no match on %s", names[0], s.cfg.Target)
}

func (s *Source) search(ctx context.Context, query string) ([]searchResultWire, error) {
	var res searchWire
	err := s.fetcher.FetchJSON(ctx, network.Request{
		URL:     s.targetURL("search", query),
		Timeout: s.cfg.Timeout,
	}, &res)
	if err != nil {
		return nil, err
	}

	return lo.Filter(res.Results, func(r searchResultWire, _ int) bool {
		return r.ID != ""
	}), nil
}

// closest picks the result whose title is nearest to any of the show's
// names. Results that fuzzily contain a name are preferred.
func closest(names []string, results []searchResultWire) searchResultWire {
	normalized := lo.Map(names, func(n string, _ int) string {
		return normalize(n)
	})

	candidates := lo.Filter(results, func(r searchResultWire, _ int) bool {
		title := normalize(r.Title)
		return lo.SomeBy(normalized, func(n string) bool {
			return fuzzy.MatchNormalizedFold(n, title) || fuzzy.MatchNormalizedFold(title, n)
		})
	})
	if len(candidates) == 0 {
		candidates = results
	}

	distance := func(r searchResultWire) int {
		title := normalize(r.Title)
		return lo.Min(lo.Map(normalized, func(n string, _ int) int {
			return levenshtein.Distance(n, title)
		}))
	}

	return lo.MinBy(candidates, func(a, b searchResultWire) bool {
		return distance(a) < distance(b)
	})
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '-', '_', '.', ',', '!', '?', '\'', '"':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
