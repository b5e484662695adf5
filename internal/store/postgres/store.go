package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-invest/advisor/internal/domain"
)

type Store struct {
	pool          *pgxpool.Pool
	users         *UserRepo
	sessions      *ChatSessionRepo
	messages      *MessageRepo
	subscriptions *SubscriptionRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:          pool,
		users:         NewUserRepo(pool),
		sessions:      NewChatSessionRepo(pool),
		messages:      NewMessageRepo(pool),
		subscriptions: NewSubscriptionRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Users() domain.UserRepository                 { return s.users }
func (s *Store) ChatSessions() domain.ChatSessionRepository   { return s.sessions }
func (s *Store) Messages() domain.MessageRepository           { return s.messages }
func (s *Store) Subscriptions() domain.SubscriptionRepository { return s.subscriptions }
