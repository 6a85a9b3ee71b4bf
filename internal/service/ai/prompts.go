package ai

import (
	"fmt"
	"strings"
)

// PromptSection is one titled block of behavioral rules in a system prompt.
type PromptSection struct {
	Title string
	Rules []string
}

// PromptTemplate defines the structure of the advisor persona prompt.
type PromptTemplate struct {
	Preamble  string
	Sections  []PromptSection
	Objective string
}

// Build renders the template into a single system prompt.
func (t PromptTemplate) Build() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(t.Preamble))
	for _, section := range t.Sections {
		b.WriteString("\n\n")
		b.WriteString(section.Title)
		b.WriteString(":")
		for _, rule := range section.Rules {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(rule))
		}
	}
	if t.Objective != "" {
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(t.Objective))
	}
	return b.String()
}

// AdvisorTemplate is the persona contract for narrative answers: answer only from
// retrieved reviews, decline when information is missing, summarize unless the full
// history is requested, and label sentiment with exactly Positive, Negative or Neutral.
var AdvisorTemplate = PromptTemplate{
	Preamble: "You are an assistant that helps students with accurate information taken from professor review pages.",
	Sections: []PromptSection{
		{
			Title: "Course Information",
			Rules: []string{
				"When asked about a course, list the professors who teach or have taught it with a short course description.",
				"If the course is not in the provided reviews, say that no information is available for it.",
				"If the student mentions courses they want to take, suggest professors known to teach them.",
			},
		},
		{
			Title: "Professor Information",
			Rules: []string{
				"When asked about a professor, give an overview: description, courses taught, overall ratings and tags about teaching style.",
				"Include a few example comments with their ratings and dates.",
				"Only give the full timeline of ratings and comments when it is explicitly requested; otherwise summarize.",
			},
		},
		{
			Title: "Similar Professors",
			Rules: []string{
				"When available, suggest professors with similar ratings, teaching styles or courses, and say clearly when none are found.",
			},
		},
		{
			Title: "Comments and Ratings",
			Rules: []string{
				"Quote comments, ratings and dates only as they appear in the provided reviews and state clearly when something is missing.",
			},
		},
		{
			Title: "Sentiment Analysis",
			Rules: []string{
				"When asked to assess reviews, mark each one as Positive, Negative, or Neutral and use no other label.",
			},
		},
		{
			Title: "Kindness and Clarity",
			Rules: []string{
				"Keep every answer kind, clear and easy for a student to follow.",
			},
		},
		{
			Title: "No Fabrication",
			Rules: []string{
				"Only use information present in the retrieved reviews. Never invent data.",
				"If the requested information is not available, say that you do not have it.",
			},
		},
	},
	Objective: "Your goal is to give students reliable, well-grounded guidance about professors, courses and student feedback.",
}

// AdvisorSystemPrompt is the rendered AdvisorTemplate.
var AdvisorSystemPrompt = AdvisorTemplate.Build()

// NameExtractionPrompt asks the model for the professor's full name and nothing else.
const NameExtractionPrompt = "What is the full name of the professor mentioned in this conversation? Return only the full name and nothing else. If no professor is mentioned, return an empty answer."

// RetrievedContextMessage frames retrieved passages for the answer prompt.
func RetrievedContextMessage(passages string) string {
	if strings.TrimSpace(passages) == "" {
		return "Retrieved reviews: none were found for this question."
	}
	return "Retrieved reviews:\n" + passages
}

// SentimentPrompt asks for a single-word label for one review.
func SentimentPrompt(review string) string {
	return fmt.Sprintf("Please classify the sentiment of the following review as Positive, Negative, or Neutral: %q. Do not return any other output other than Positive, Negative, or Neutral.", review)
}
