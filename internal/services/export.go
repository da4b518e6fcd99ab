package services

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/yoockh/resumerank/internal/models"
)

var csvHeader = []string{"Rank", "Candidate Name", "Match Score (%)", "Analysis Summary", "Resume File"}

// WriteRankingsCSV writes rankings in the order given, numbering rows from 1.
func WriteRankingsCSV(w io.Writer, rankings []models.Ranking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i, r := range rankings {
		score := ""
		if r.Score != nil {
			score = strconv.Itoa(*r.Score)
		}
		rec := []string{
			strconv.Itoa(i + 1),
			deref(r.CandidateName),
			score,
			deref(r.Summary),
			r.Filename,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
