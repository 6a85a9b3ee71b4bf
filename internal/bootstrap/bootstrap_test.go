package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/profscope/backend/internal/analysis/intent"
	"github.com/zhouzirui/profscope/backend/internal/config"
	"github.com/zhouzirui/profscope/backend/internal/model/professor"
	"github.com/zhouzirui/profscope/backend/internal/service/ai"
)

const janePage = `<html><body>
<div class="NameTitle__Name-dowf0z-0 cfjPUG">Jane Doe</div>
<p>Jane Doe teaches Data Structures and uses lots of diagrams.</p>
<div class="Comments__StyledComments-dzzyvm-0">Loved the lectures</div>
<div class="Comments__StyledComments-dzzyvm-0">Exams were brutal</div>
</body></html>`

type fakeCompleter struct{}

func (fakeCompleter) Complete(_ context.Context, req ai.Completion) (string, error) {
	last := req.Messages[len(req.Messages)-1].Content
	switch {
	case req.System == ai.NameExtractionPrompt:
		if strings.Contains(last, "Jane") {
			return "Jane", nil
		}
		return "", nil
	case req.System == ai.AdvisorSystemPrompt:
		return "Jane Doe is known for clear diagrams.", nil
	case strings.Contains(last, "brutal"):
		return "Negative", nil
	default:
		return "Positive", nil
	}
}

type letterEmbedder struct{}

func (letterEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = letterEmbedder{}.EmbedQuery(ctx, t)
	}
	return out, nil
}

func (letterEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			Provider:             config.ProviderOpenAI,
			AnswerTemperature:    0.2,
			SentimentTemperature: 0.7,
			SentimentMaxTokens:   10,
		},
		Index: config.IndexConfig{Type: config.IndexMemory, TopK: 4},
		Store: config.StoreConfig{
			Driver:     config.DriverSQLite,
			DSN:        fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
			Collection: "professor_comments",
		},
		Harvest: config.HarvestConfig{
			Strategy:        config.HarvesterStatic,
			NameSelector:    ".NameTitle__Name-dowf0z-0.cfjPUG",
			CommentSelector: ".Comments__StyledComments-dzzyvm-0",
		},
		Ingest:              config.IngestConfig{ChunkSize: 2000},
		ExternalCallTimeout: 5 * time.Second,
	}
}

func TestIngestThenQueryEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(janePage))
	}))
	defer srv.Close()

	ctx := context.Background()
	app, err := NewWith(ctx, testConfig(), Collaborators{Completer: fakeCompleter{}, Embedder: letterEmbedder{}})
	require.NoError(t, err)
	defer app.Close()

	res, err := app.Pipeline.Ingest(ctx, srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe"}, res.ProfessorNames)
	require.Len(t, res.AnalyzedComments, 2)
	assert.Equal(t, professor.Positive, res.AnalyzedComments[0].Sentiment)
	assert.Equal(t, professor.Negative, res.AnalyzedComments[1].Sentiment)

	answer, err := app.Query.Ask(ctx, "", "Tell me about Jane")
	require.NoError(t, err)
	assert.Equal(t, intent.Narrative, answer.Intent)
	assert.Equal(t, "Jane Doe", answer.Professor)
	assert.Equal(t, "Jane Doe is known for clear diagrams.", answer.Response)

	trend, err := app.Query.Ask(ctx, answer.SessionID, "Can I see her ratings over time?")
	require.NoError(t, err)
	assert.Equal(t, intent.Trend, trend.Intent)
	require.True(t, trend.HasRatings())
	assert.Equal(t, "Loved the lectures", trend.Ratings[0].Comment)
	assert.Equal(t, "Exams were brutal", trend.Ratings[1].Comment)

	session, err := app.Sessions.GetOrCreate(ctx, answer.SessionID)
	require.NoError(t, err)
	assert.Len(t, session.Messages, 2)
}

func TestNewRequiresEmbeddingCredentials(t *testing.T) {
	_, err := NewWith(context.Background(), testConfig(), Collaborators{Completer: fakeCompleter{}})
	assert.Error(t, err)
}
