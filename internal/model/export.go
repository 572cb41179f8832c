package model

// Answer is one submitted answer. Question text, type, key and weight are
// copied from the loaded worksheet so the stored submission is self-contained.
type Answer struct {
	ID       QuestionID   `json:"id"`
	Type     QuestionType `json:"type"`
	Question string       `json:"question"`
	Response string       `json:"jawaban"`
	Key      string       `json:"kunci"`
	Weight   float64      `json:"bobot"`
}

// Submission is the body of the submit endpoint.
type Submission struct {
	WorksheetID string   `json:"lkpd_id" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Answers     []Answer `json:"answers"`
}

// SubmitResult is the scoring outcome the server reports for a submission.
type SubmitResult struct {
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
	Feedback   string  `json:"feedback"`
	ComputedBy string  `json:"computed_by,omitempty"`
}

// SubmitAck is the acknowledgment of the submit endpoint.
type SubmitAck struct {
	Message string        `json:"message"`
	Result  *SubmitResult `json:"result,omitempty"`
}

// RecapRow is one student's line in the recap of a worksheet.
type RecapRow struct {
	Name           string  `json:"name"`
	Avg            float64 `json:"avg"`
	Status         string  `json:"status"`
	TotalQuestions int     `json:"total_questions"`
}

// ExportFormat selects the file produced by an export download.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// Status labels assigned to a percentage score.
const (
	StatusTinggi    = "Tinggi"
	StatusCukup     = "Cukup"
	StatusBimbingan = "Perlu Bimbingan"
)

// ScoreStatus classifies a percentage score: 85 and above is high, 60 and
// above is adequate, anything lower needs guidance.
func ScoreStatus(score float64) string {
	switch {
	case score >= 85:
		return StatusTinggi
	case score >= 60:
		return StatusCukup
	default:
		return StatusBimbingan
	}
}

// RecapEntry is the full recap line the answers endpoint returns. Clients
// only read the RecapRow part.
type RecapEntry struct {
	RecapRow
	Score       float64 `json:"score"`
	SubmittedAt string  `json:"submitted_at"`
	Feedback    string  `json:"feedback"`
}
