package store

import (
	"fmt"
	"time"

	"github.com/sari-edu/sari/internal/model"
)

// Recap builds the recap lines of a worksheet, one per submission in arrival
// order. A worksheet without submissions yields an empty, non-nil slice.
func (s *Store) Recap(worksheetID string) ([]model.RecapEntry, error) {
	recs, err := s.ListSubmissions(worksheetID)
	if err != nil {
		return nil, fmt.Errorf("list submissions of %s: %w", worksheetID, err)
	}

	entries := make([]model.RecapEntry, 0, len(recs))
	for _, r := range recs {
		entries = append(entries, model.RecapEntry{
			RecapRow: model.RecapRow{
				Name:           r.Name,
				Avg:            r.Score,
				Status:         model.ScoreStatus(r.Score),
				TotalQuestions: len(r.Answers),
			},
			Score:       r.Score,
			SubmittedAt: r.SubmittedAt.UTC().Format(time.RFC3339),
			Feedback:    r.Feedback,
		})
	}
	return entries, nil
}
