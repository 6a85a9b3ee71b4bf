package chat_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/zhouzirui/profscope/backend/internal/model/chat"
	chat "github.com/zhouzirui/profscope/backend/internal/service/chat"
)

func TestServiceGetOrCreate(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.GetOrCreate(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", session.ID)
	assert.Empty(t, session.Messages)
	assert.Empty(t, session.CurrentProfessor)

	_, err = svc.GetOrCreate(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Len())
}

func TestServiceRejectsEmptyID(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	_, err := svc.GetOrCreate(ctx, "")
	assert.ErrorIs(t, err, chat.ErrSessionIDRequired)
	assert.ErrorIs(t, svc.Append(ctx, "", model.UserMessage("hi")), chat.ErrSessionIDRequired)
	assert.ErrorIs(t, svc.SetCurrentProfessor(ctx, "", "Jane Doe"), chat.ErrSessionIDRequired)
	assert.Equal(t, 0, svc.Len())
}

func TestServiceAppendPreservesOrder(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, "s", model.UserMessage("q1"), model.AssistantMessage("a1")))
	require.NoError(t, svc.Append(ctx, "s", model.UserMessage("q2")))

	session, err := svc.GetOrCreate(ctx, "s")
	require.NoError(t, err)
	require.Len(t, session.Messages, 3)
	assert.Equal(t, "q1", session.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, session.Messages[1].Role)
	assert.Equal(t, "q2", session.Messages[2].Content)
}

func TestServiceSnapshotIsDetached(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()
	require.NoError(t, svc.Append(ctx, "s", model.UserMessage("original")))

	session, err := svc.GetOrCreate(ctx, "s")
	require.NoError(t, err)
	session.Messages[0].Content = "mutated"

	again, err := svc.GetOrCreate(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Messages[0].Content)
}

func TestServiceClear(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()
	require.NoError(t, svc.SetCurrentProfessor(ctx, "s", "Jane Doe"))

	existed, err := svc.Clear(ctx, "s")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = svc.Clear(ctx, "never-created")
	require.NoError(t, err)
	assert.False(t, existed)

	session, err := svc.GetOrCreate(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, session.CurrentProfessor)
}

func TestServiceLockSerializesSameSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	const turns = 20
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := svc.Lock("shared")
			defer unlock()

			// Read-modify-write turn: both messages must land adjacent.
			assert.NoError(t, svc.Append(ctx, "shared", model.UserMessage("q")))
			time.Sleep(time.Millisecond)
			assert.NoError(t, svc.Append(ctx, "shared", model.AssistantMessage("a")))
		}()
	}
	wg.Wait()

	session, err := svc.GetOrCreate(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, session.Messages, 2*turns)
	for i := 0; i < len(session.Messages); i += 2 {
		assert.Equal(t, model.RoleUser, session.Messages[i].Role)
		assert.Equal(t, model.RoleAssistant, session.Messages[i+1].Role)
	}
}

func TestServiceLockDoesNotBlockOtherSessions(t *testing.T) {
	svc := chat.NewService()
	unlockA := svc.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := svc.Lock("b")
		unlockB()
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different session blocked")
	}
}
