package professor

import "time"

// AnalyzedComment is one harvested review with its sentiment label.
type AnalyzedComment struct {
	Comment   string    `json:"comment"`
	Sentiment Sentiment `json:"sentiment"`
	Date      time.Time `json:"date"`
}

// Record is the rating snapshot written once per ingestion of a profile page.
// Records are keyed by professor display name; re-ingesting a page appends a new record.
type Record struct {
	ProfessorName    string            `json:"professorName"`
	URL              string            `json:"url"`
	AnalyzedComments []AnalyzedComment `json:"analyzedComments"`
	Timestamp        time.Time         `json:"timestamp"`
}

// Flatten concatenates the comments of every record, preserving record order.
func Flatten(records []Record) []AnalyzedComment {
	total := 0
	for _, r := range records {
		total += len(r.AnalyzedComments)
	}
	out := make([]AnalyzedComment, 0, total)
	for _, r := range records {
		out = append(out, r.AnalyzedComments...)
	}
	return out
}
