package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuilermoT/BlackStory2/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })
	return store
}

func testConversation() *core.Conversation {
	conv := core.NewConversation("gemini-2.0-flash-exp", "gemini", "llama3", "ollama", 20)
	conv.FullSolution = "His parachute failed to open."
	conv.Result = core.OutcomeWin
	conv.QuestionsUsed = 2

	conv.AddMessage(&core.Message{
		ID:           core.GenerateID(),
		Role:         core.RoleStoryMaster,
		ModelName:    "gemini-2.0-flash-exp",
		Provider:     "gemini",
		Content:      "A man is found dead in a field.",
		Timestamp:    time.Now().UTC().Truncate(time.Second),
		ResponseTime: 2 * time.Second,
	})
	conv.AddMessage(&core.Message{
		ID:           core.GenerateID(),
		Role:         core.RoleDetective,
		ModelName:    "llama3",
		Provider:     "ollama",
		Content:      "RESOLVER: His parachute failed.",
		Timestamp:    time.Now().UTC().Truncate(time.Second),
		ResponseTime: 750 * time.Millisecond,
	})
	return conv
}

func TestSaveAndGetConversation(t *testing.T) {
	store := newTestStore(t)
	conv := testConversation()

	require.NoError(t, store.SaveConversation(conv))

	got, err := store.GetConversation(conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, conv.ID, got.ID)
	assert.Equal(t, conv.Model1Name, got.Model1Name)
	assert.Equal(t, conv.Model2Provider, got.Model2Provider)
	assert.Equal(t, conv.FullSolution, got.FullSolution)
	assert.Equal(t, conv.Result, got.Result)
	assert.Equal(t, conv.QuestionsUsed, got.QuestionsUsed)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, core.RoleStoryMaster, got.Messages[0].Role)
	assert.Equal(t, conv.Messages[0].Content, got.Messages[0].Content)
	assert.Equal(t, core.RoleDetective, got.Messages[1].Role)
	assert.Equal(t, conv.Messages[1].ResponseTime, got.Messages[1].ResponseTime)
}

func TestGetConversationMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetConversation("no-such-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveConversationOverwrites(t *testing.T) {
	store := newTestStore(t)
	conv := testConversation()

	require.NoError(t, store.SaveConversation(conv))

	conv.Result = core.OutcomeLoss
	require.NoError(t, store.SaveConversation(conv))

	got, err := store.GetConversation(conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, core.OutcomeLoss, got.Result)
	assert.Len(t, got.Messages, 2)
}

func TestListGamesNewestFirst(t *testing.T) {
	store := newTestStore(t)

	first := testConversation()
	first.StartTime = time.Now().Add(-time.Hour)
	require.NoError(t, store.SaveConversation(first))

	second := testConversation()
	second.StartTime = time.Now()
	require.NoError(t, store.SaveConversation(second))

	games, err := store.ListGames(10, 0)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, second.ID, games[0].ID)
	assert.Equal(t, first.ID, games[1].ID)
	assert.Equal(t, "gemini-2.0-flash-exp", games[0].Model1)
	assert.Equal(t, 2, games[0].QuestionsUsed)
}

func TestListGamesLimitAndOffset(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		conv := testConversation()
		conv.StartTime = time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.SaveConversation(conv))
	}

	page, err := store.ListGames(2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := store.ListGames(10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestDeleteGame(t *testing.T) {
	store := newTestStore(t)
	conv := testConversation()
	require.NoError(t, store.SaveConversation(conv))

	require.NoError(t, store.DeleteGame(conv.ID))

	got, err := store.GetConversation(conv.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = store.DeleteGame(conv.ID)
	assert.ErrorContains(t, err, "game not found")
}
