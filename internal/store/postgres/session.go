package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-invest/advisor/internal/domain"
)

type ChatSessionRepo struct {
	pool *pgxpool.Pool
}

func NewChatSessionRepo(pool *pgxpool.Pool) *ChatSessionRepo {
	return &ChatSessionRepo{pool: pool}
}

func (r *ChatSessionRepo) Create(ctx context.Context, s *domain.ChatSession) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_sessions (id, user_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.UserID, s.Status, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("chatSessionRepo.Create: %w", err)
	}

	return nil
}

func (r *ChatSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error) {
	var s domain.ChatSession

	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, status, created_at, updated_at
		 FROM chat_sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.UserID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("chatSessionRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("chatSessionRepo.GetByID: %w", err)
	}

	return &s, nil
}

// LatestByUser returns the most-recently-updated active session, so a user
// always resumes the same thread across devices.
func (r *ChatSessionRepo) LatestByUser(ctx context.Context, userID uuid.UUID) (*domain.ChatSession, error) {
	var s domain.ChatSession

	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, status, created_at, updated_at
		 FROM chat_sessions WHERE user_id = $1 AND status = $2
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		userID, domain.SessionStatusActive,
	).Scan(&s.ID, &s.UserID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("chatSessionRepo.LatestByUser: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("chatSessionRepo.LatestByUser: %w", err)
	}

	return &s, nil
}

func (r *ChatSessionRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE chat_sessions SET updated_at = $1 WHERE id = $2`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("chatSessionRepo.Touch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chatSessionRepo.Touch: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ChatSessionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE chat_sessions SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("chatSessionRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chatSessionRepo.UpdateStatus: %w", domain.ErrNotFound)
	}

	return nil
}
