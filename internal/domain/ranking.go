package domain

import (
	"math"
	"net/url"
	"sort"
	"strings"
	"unicode"
)

const (
	// Scoring weights
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0
	ScoreFuzzyMatch     = 25.0

	// Position bonus (earlier fragments are better)
	ScorePositionBonus = 10.0

	// Favorites win ties
	ScoreFavoriteBonus = 5.0
)

// Field weights applied to the best fragment score of each field.
const (
	weightTitle       = 1.0
	weightHost        = 0.8
	weightTag         = 0.6
	weightDescription = 0.3
)

// RankedBookmark is a bookmark with its relevance score for a query.
type RankedBookmark struct {
	Bookmark Bookmark `json:"bookmark"`
	Score    float64  `json:"score"`
}

// ScoreBookmark rates how well b matches query. Title, hostname, tags and
// description are scored fragment by fragment and the best weighted field
// wins. A query of several words also matches when every word is found
// somewhere in the bookmark.
func ScoreBookmark(query string, b Bookmark) float64 {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return 0.0
	}

	best := math.Max(
		weightTitle*scoreText(query, b.Title),
		weightHost*scoreFragments(query, hostFragments(b.URL)),
	)
	for _, tag := range b.Tags {
		best = math.Max(best, weightTag*scoreText(query, tag))
	}
	best = math.Max(best, weightDescription*scoreText(query, b.Description))

	if best == 0.0 {
		if words := strings.Fields(query); len(words) > 1 && allWordsMatch(words, b) {
			best = ScoreFuzzyMatch
		}
	}
	if best > 0.0 && b.IsFavorite {
		best += ScoreFavoriteBonus
	}
	return best
}

// RankBookmarks scores every bookmark of bs against query and returns the
// matching ones, best first. Equal scores keep collection order.
func RankBookmarks(query string, bs []Bookmark) []RankedBookmark {
	ranked := make([]RankedBookmark, 0, len(bs))
	for _, b := range bs {
		score := ScoreBookmark(query, b)
		// Skip bookmarks with zero score (no match)
		if score == 0.0 {
			continue
		}
		ranked = append(ranked, RankedBookmark{Bookmark: b, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// scoreText matches query against the whole text first, then against its
// individual words.
func scoreText(query, text string) float64 {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0.0
	}

	switch {
	case query == text:
		return ScoreExactMatch + ScorePositionBonus
	case strings.HasPrefix(text, query):
		return ScorePrefixMatch + ScorePositionBonus
	}
	return scoreFragments(query, textFragments(text))
}

// scoreFragments returns the best score of query against any fragment.
func scoreFragments(query string, fragments []string) float64 {
	q := normalizeFragment(query)
	best := 0.0
	for i, frag := range fragments {
		best = math.Max(best, scoreFragment(q, frag, i))
	}
	return best
}

// scoreFragment scores a single query fragment against a text fragment
func scoreFragment(queryFrag, frag string, position int) float64 {
	frag = normalizeFragment(frag)
	if queryFrag == "" || frag == "" {
		return 0.0
	}

	// Exact match
	if queryFrag == frag {
		return ScoreExactMatch + calculatePositionBonus(position)
	}

	// Prefix match
	if strings.HasPrefix(frag, queryFrag) {
		return ScorePrefixMatch + calculatePositionBonus(position)
	}

	// Substring match
	if index := strings.Index(frag, queryFrag); index >= 0 {
		// Earlier substring matches get higher score
		substringBonus := ScorePositionBonus * (1.0 - float64(index)/float64(len(frag)))
		return ScoreSubstringMatch + substringBonus
	}

	// Fuzzy match on fragments of comparable length
	if len(queryFrag) >= 3 && math.Abs(float64(len(queryFrag)-len(frag))) <= 2 {
		if similarity := calculateSimilarity(queryFrag, frag); similarity > 0.75 {
			return ScoreFuzzyMatch * similarity
		}
	}

	return 0.0
}

// calculatePositionBonus gives bonus for earlier positions
func calculatePositionBonus(position int) float64 {
	return ScorePositionBonus * math.Exp(-float64(position)*0.3)
}

// calculateSimilarity is the share of runes of s1 found in s2.
func calculateSimilarity(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0.0
	}

	matches, total := 0, 0
	for _, c := range s1 {
		total++
		if strings.ContainsRune(s2, c) {
			matches++
		}
	}
	return float64(matches) / float64(total)
}

func allWordsMatch(words []string, b Bookmark) bool {
	haystack := strings.ToLower(strings.Join(append([]string{b.Title, b.URL, b.Description}, b.Tags...), " "))
	for _, w := range words {
		if !strings.Contains(haystack, w) {
			return false
		}
	}
	return true
}

// hostFragments splits the hostname of rawURL on dots, dropping a leading
// "www": "https://www.docs.github.com/x" -> ["docs", "github", "com"].
func hostFragments(rawURL string) []string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return nil
	}
	frags := strings.Split(strings.ToLower(u.Hostname()), ".")
	if len(frags) > 1 && frags[0] == "www" {
		frags = frags[1:]
	}
	return frags
}

// textFragments splits text into words on any non letter or digit.
func textFragments(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalizeFragment normalizes a fragment for matching
func normalizeFragment(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}
