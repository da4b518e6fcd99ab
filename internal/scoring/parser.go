package scoring

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yoockh/resumerank/internal/models"
)

const UnknownCandidate = "Unknown"

// Markers may be wrapped in markdown bold by the model ("**SCORE:** 80"), hence the `*` in the gaps.
var (
	nameRe    = regexp.MustCompile(`NAME:[ \t*]*([^\r\n]*)`)
	scoreRe   = regexp.MustCompile(`SCORE:[ \t*]*(\d+)`)
	summaryRe = regexp.MustCompile(`(?s)SUMMARY:[ \t*]*(.*)`)
)

// Parse pulls name, score and summary out of free-form oracle text. Each field is found
// independently; a missing field falls back to its default and never blocks the others.
func Parse(raw string) models.ScoreResult {
	res := models.ScoreResult{
		Name:    UnknownCandidate,
		Score:   0,
		Summary: raw,
	}

	if m := nameRe.FindStringSubmatch(raw); m != nil {
		if name := strings.Trim(strings.TrimSpace(m[1]), "*"); strings.TrimSpace(name) != "" {
			res.Name = strings.TrimSpace(name)
		}
	}

	if m := scoreRe.FindStringSubmatch(raw); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			res.Score = clampScore(n)
		}
	}

	if m := summaryRe.FindStringSubmatch(raw); m != nil {
		res.Summary = strings.TrimSpace(m[1])
	}

	return res
}

func clampScore(n int) int {
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	default:
		return n
	}
}
