package intent

import "strings"

// Label names the response mode chosen for a question.
type Label string

const (
	Narrative Label = "narrative"
	Trend     Label = "trend"
)

// DefaultTrendKeywords are matched case-insensitively anywhere in the question.
var DefaultTrendKeywords = []string{"trend line", "ratings", "over time", "graph"}

// Decision is the routing outcome. Keyword is the first trend keyword found, if any.
type Decision struct {
	Intent  Label
	Keyword string
}

// Router classifies questions lexically. Paraphrases that avoid every keyword
// ("how has she been rated lately") stay on the narrative path.
type Router struct {
	trendKeywords []string
}

// NewRouter builds a Router; an empty keyword list selects DefaultTrendKeywords.
func NewRouter(trendKeywords []string) *Router {
	if len(trendKeywords) == 0 {
		trendKeywords = DefaultTrendKeywords
	}

	normalized := make([]string, 0, len(trendKeywords))
	for _, kw := range trendKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	return &Router{trendKeywords: normalized}
}

// Route picks the trend path only when a keyword matches and a professor is known.
func (r *Router) Route(question string, professorResolved bool) Decision {
	keyword, ok := r.matchTrend(question)
	if !ok || !professorResolved {
		return Decision{Intent: Narrative, Keyword: keyword}
	}
	return Decision{Intent: Trend, Keyword: keyword}
}

func (r *Router) matchTrend(question string) (string, bool) {
	normalized := strings.ToLower(question)
	if strings.TrimSpace(normalized) == "" {
		return "", false
	}

	for _, kw := range r.trendKeywords {
		if strings.Contains(normalized, kw) {
			return kw, true
		}
	}
	return "", false
}
