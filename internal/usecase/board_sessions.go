package usecase

import (
	"context"
	"fmt"

	"github.com/loom-sh/loom/internal/domain"
)

// BoardSessionsInput identifies a board/session pair.
type BoardSessionsInput struct {
	BoardID   string // Full ID, short prefix or slug (required)
	SessionID string // Full ID or short prefix (required)
}

// BoardSessionsOutput contains the updated board.
type BoardSessionsOutput struct {
	Board *domain.Board
}

// BoardSessions is the use case for pinning sessions to boards. Boards hold
// ID references only; adding or removing never mutates the session.
type BoardSessions struct {
	boards   domain.BoardStore
	sessions domain.SessionStore
	logger   domain.Logger
}

// NewBoardSessions creates a new BoardSessions use case.
func NewBoardSessions(boards domain.BoardStore, sessions domain.SessionStore, logger domain.Logger) *BoardSessions {
	return &BoardSessions{boards: boards, sessions: sessions, logger: logger}
}

// Add pins a session to a board. Adding an already-pinned session is a
// no-op.
func (uc *BoardSessions) Add(ctx context.Context, in BoardSessionsInput) (*BoardSessionsOutput, error) {
	board, err := uc.getBoard(ctx, in.BoardID)
	if err != nil {
		return nil, err
	}
	session, err := uc.sessions.Get(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if board.HasSession(session.ID) {
		return &BoardSessionsOutput{Board: board}, nil
	}

	sessions := append(append([]string{}, board.Sessions...), session.ID)
	updated, err := uc.boards.Patch(ctx, board.ID, domain.Patch{"sessions": sessions})
	if err != nil {
		return nil, fmt.Errorf("patch board: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("session pinned", "board_id", board.ID, "session_id", session.ID)
	}
	return &BoardSessionsOutput{Board: updated}, nil
}

// Remove unpins a session from a board. Removing an unpinned session is a
// no-op.
func (uc *BoardSessions) Remove(ctx context.Context, in BoardSessionsInput) (*BoardSessionsOutput, error) {
	board, err := uc.getBoard(ctx, in.BoardID)
	if err != nil {
		return nil, err
	}
	session, err := uc.sessions.Get(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !board.HasSession(session.ID) {
		return &BoardSessionsOutput{Board: board}, nil
	}

	sessions := make([]string, 0, len(board.Sessions)-1)
	for _, id := range board.Sessions {
		if id != session.ID {
			sessions = append(sessions, id)
		}
	}
	updated, err := uc.boards.Patch(ctx, board.ID, domain.Patch{"sessions": sessions})
	if err != nil {
		return nil, fmt.Errorf("patch board: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("session unpinned", "board_id", board.ID, "session_id", session.ID)
	}
	return &BoardSessionsOutput{Board: updated}, nil
}

// getBoard resolves by slug first, then ID or short prefix.
func (uc *BoardSessions) getBoard(ctx context.Context, ref string) (*domain.Board, error) {
	if board, err := uc.boards.GetBySlug(ctx, ref); err == nil {
		return board, nil
	}
	board, err := uc.boards.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	return board, nil
}
