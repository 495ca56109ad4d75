package segment

import (
	"sort"
	"strings"

	"vidgen/internal/config"
	"vidgen/internal/document"
	"vidgen/internal/outline"
)

// assignDocumentImages runs the primary matching pass: each extracted image is
// a candidate for every segment whose page range contains its source page, and
// is claimed by the qualifying segment with the highest relevance score. Ties
// go to the lowest segment index, so the assignment is fully deterministic.
func assignDocumentImages(segments []outline.Segment, images []document.ExtractedImage, weights config.MatchWeights) {
	type claim struct {
		segment int
		score   float64
	}

	claims := make(map[string]claim, len(images))
	for _, img := range images {
		for si := range segments {
			if img.Page < segments[si].PageStart || img.Page > segments[si].PageEnd {
				continue
			}
			score := relevance(img.Label, &segments[si], weights)
			current, contested := claims[img.ID]
			if !contested || score > current.score {
				claims[img.ID] = claim{segment: si, score: score}
			}
		}
	}

	// Deterministic insertion order regardless of map iteration.
	ids := make([]string, 0, len(claims))
	for id := range claims {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		c := claims[id]
		segments[c.segment].Visuals = append(segments[c.segment].Visuals, outline.VisualAssignment{
			Kind:     outline.VisualDocumentImage,
			SourceID: id,
			Score:    c.score,
		})
	}

	for si := range segments {
		rankVisuals(segments[si].Visuals)
	}
}

// rankVisuals orders a segment's visuals by descending score, then source id,
// and stamps ranks.
func rankVisuals(visuals []outline.VisualAssignment) {
	sort.SliceStable(visuals, func(i, j int) bool {
		if visuals[i].Score != visuals[j].Score {
			return visuals[i].Score > visuals[j].Score
		}
		return visuals[i].SourceID < visuals[j].SourceID
	})
	for i := range visuals {
		visuals[i].Rank = i
	}
}

// relevance scores a visual label against a segment's keywords and title.
// Exact keyword matches outweigh partial token overlap, which outweighs title
// token matches.
func relevance(label string, seg *outline.Segment, weights config.MatchWeights) float64 {
	labelTokens := tokenize(label)
	if len(labelTokens) == 0 {
		return 0
	}

	keywordSet := make(map[string]struct{}, len(seg.Keywords))
	for _, kw := range seg.Keywords {
		keywordSet[strings.ToLower(strings.TrimSpace(kw))] = struct{}{}
	}
	titleSet := make(map[string]struct{})
	for _, token := range tokenize(seg.Title) {
		titleSet[token] = struct{}{}
	}

	var score float64
	for _, token := range labelTokens {
		if _, exact := keywordSet[token]; exact {
			score += weights.ExactKeyword
			continue
		}
		if partialMatch(token, keywordSet) {
			score += weights.PartialToken
			continue
		}
		if _, title := titleSet[token]; title {
			score += weights.TitleToken
		}
	}
	return score
}

// partialMatch reports whether the token shares a substring relation with any
// keyword. Short tokens are excluded to avoid stopword noise.
func partialMatch(token string, keywords map[string]struct{}) bool {
	if len(token) < 4 {
		return false
	}
	for kw := range keywords {
		if len(kw) < 4 {
			continue
		}
		if strings.Contains(kw, token) || strings.Contains(token, kw) {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if field != "" {
			tokens = append(tokens, field)
		}
	}
	return tokens
}
