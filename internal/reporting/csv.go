package reporting

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/tokimonsterAI/agent/internal/domain"
)

var csvHeader = []string{
	"evaluated_at", "request_id", "username", "token_name", "token_symbol",
	"virality", "storytelling", "innovation", "mood", "total_score",
	"approved", "eligible", "reason",
}

// WriteCSV writes one row per evaluation record.
func WriteCSV(w io.Writer, records []*domain.EvaluationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.EvaluatedAt, 10),
			r.RequestID,
			r.Username,
			r.TokenName,
			r.TokenSymbol,
			strconv.Itoa(r.Scores.Virality),
			strconv.Itoa(r.Scores.Storytelling),
			strconv.Itoa(r.Scores.Innovation),
			strconv.Itoa(r.Scores.Mood),
			strconv.Itoa(r.TotalScore),
			strconv.FormatBool(r.Approved),
			strconv.FormatBool(r.Eligible),
			r.Reason,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
