package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
	"github.com/loom-sh/loom/internal/testutil"
)

func boardFixture(t *testing.T) (*BoardSessions, *testutil.MockBoardStore, *domain.Board, *domain.Session) {
	t.Helper()
	boards := testutil.NewMockBoardStore()
	sessions := testutil.NewMockSessionStore()
	board := &domain.Board{ID: identity.New(), Slug: "active-work", Name: "Active work", Sessions: []string{}}
	require.NoError(t, boards.Insert(context.Background(), board))
	session := seedSession(t, sessions)
	return NewBoardSessions(boards, sessions, testutil.NopLogger{}), boards, board, session
}

func TestBoardSessionsAddAndRemove(t *testing.T) {
	uc, boards, board, session := boardFixture(t)
	ctx := context.Background()

	out, err := uc.Add(ctx, BoardSessionsInput{BoardID: board.ID, SessionID: session.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{session.ID}, out.Board.Sessions)

	out, err = uc.Remove(ctx, BoardSessionsInput{BoardID: board.ID, SessionID: session.ID})
	require.NoError(t, err)
	assert.Empty(t, out.Board.Sessions)
	assert.Empty(t, boards.Boards[board.ID].Sessions)
}

func TestBoardSessionsAddIsIdempotent(t *testing.T) {
	uc, _, board, session := boardFixture(t)
	ctx := context.Background()

	_, err := uc.Add(ctx, BoardSessionsInput{BoardID: board.ID, SessionID: session.ID})
	require.NoError(t, err)
	out, err := uc.Add(ctx, BoardSessionsInput{BoardID: board.ID, SessionID: session.ID})
	require.NoError(t, err)
	assert.Len(t, out.Board.Sessions, 1)
}

func TestBoardSessionsResolvesSlug(t *testing.T) {
	uc, _, _, session := boardFixture(t)

	out, err := uc.Add(context.Background(), BoardSessionsInput{BoardID: "active-work", SessionID: session.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{session.ID}, out.Board.Sessions)
}

func TestBoardSessionsUnknownSession(t *testing.T) {
	uc, _, board, _ := boardFixture(t)

	_, err := uc.Add(context.Background(), BoardSessionsInput{BoardID: board.ID, SessionID: identity.New()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
