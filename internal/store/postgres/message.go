package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-invest/advisor/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Append(ctx context.Context, m *domain.Message) error {
	var metadata []byte
	if m.Metadata != nil {
		var err error
		metadata, err = json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("messageRepo.Append: marshal metadata: %w", err)
		}
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_messages (id, chat_id, role, content, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ChatID, m.Role, m.Content, metadata, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("messageRepo.Append: %w", err)
	}

	return nil
}

func (r *MessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]*domain.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, chat_id, role, content, metadata, created_at
		 FROM chat_messages WHERE chat_id = $1
		 ORDER BY created_at ASC`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("messageRepo.ListByChat: %w", err)
	}
	defer rows.Close()

	var msgs []*domain.Message
	for rows.Next() {
		var m domain.Message
		var metadata []byte

		err = rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &metadata, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("messageRepo.ListByChat: scan: %w", err)
		}

		if len(metadata) > 0 {
			if err = json.Unmarshal(metadata, &m.Metadata); err != nil {
				return nil, fmt.Errorf("messageRepo.ListByChat: unmarshal metadata: %w", err)
			}
		}

		msgs = append(msgs, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("messageRepo.ListByChat: rows: %w", err)
	}

	return msgs, nil
}
