package professor

import "strings"

// Sentiment is the label attached to a single review comment.
type Sentiment string

const (
	Positive Sentiment = "Positive"
	Negative Sentiment = "Negative"
	Neutral  Sentiment = "Neutral"
	// Unknown marks a comment whose classification failed or could not be parsed.
	Unknown Sentiment = "Unknown"
)

// ParseSentiment maps raw model output onto a known label. Surrounding quotes,
// whitespace and trailing punctuation are tolerated ("positive.", "\"Negative\"").
func ParseSentiment(raw string) (Sentiment, bool) {
	normalized := strings.ToLower(strings.Trim(strings.TrimSpace(raw), "\"'`.!*: \n\t"))
	switch normalized {
	case "positive":
		return Positive, true
	case "negative":
		return Negative, true
	case "neutral":
		return Neutral, true
	default:
		return Unknown, false
	}
}
