package records

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/profscope/backend/internal/config"
	"github.com/zhouzirui/profscope/backend/internal/database"
	"github.com/zhouzirui/profscope/backend/internal/model/professor"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(config.StoreConfig{Driver: config.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	store, err := NewGormStore(db, "professor_comments")
	require.NoError(t, err)
	return store
}

func comment(text string, s professor.Sentiment) professor.AnalyzedComment {
	return professor.AnalyzedComment{Comment: text, Sentiment: s, Date: time.Now().UTC()}
}

func TestAddAndFindPreservesOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, professor.Record{
		ProfessorName: "John Smith",
		URL:           "https://x/1",
		Timestamp:     time.Now(),
		AnalyzedComments: []professor.AnalyzedComment{
			comment("Great!", professor.Positive),
			comment("Bad experience", professor.Negative),
		},
	}))
	require.NoError(t, store.Add(ctx, professor.Record{
		ProfessorName:    "John Smith",
		URL:              "https://x/1",
		Timestamp:        time.Now(),
		AnalyzedComments: []professor.AnalyzedComment{comment("Okay", professor.Neutral)},
	}))
	require.NoError(t, store.Add(ctx, professor.Record{
		ProfessorName:    "Jane Doe",
		Timestamp:        time.Now(),
		AnalyzedComments: []professor.AnalyzedComment{comment("Tough", professor.Unknown)},
	}))

	got, err := store.FindByProfessor(ctx, "John Smith")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://x/1", got[0].URL)

	flat := professor.Flatten(got)
	require.Len(t, flat, 3)
	assert.Equal(t, "Great!", flat[0].Comment)
	assert.Equal(t, professor.Positive, flat[0].Sentiment)
	assert.Equal(t, "Bad experience", flat[1].Comment)
	assert.Equal(t, "Okay", flat[2].Comment)
	assert.False(t, flat[2].Date.IsZero())
}

func TestFindUnknownProfessor(t *testing.T) {
	store := newTestStore(t)

	got, err := store.FindByProfessor(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddRecordWithoutComments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, professor.Record{ProfessorName: "Quiet Prof", Timestamp: time.Now()}))

	got, err := store.FindByProfessor(ctx, "Quiet Prof")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].AnalyzedComments)
}

func TestAddHonoursCancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Add(ctx, professor.Record{ProfessorName: "John Smith", Timestamp: time.Now()})
	assert.Error(t, err)
}

func TestNewGormStoreRequiresCollection(t *testing.T) {
	_, err := NewGormStore(nil, "")
	assert.Error(t, err)
}
