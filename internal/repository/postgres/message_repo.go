package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mzaikin/courier/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, from_id, to_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, msg.ID, msg.FromID, msg.ToID, msg.Body, msg.CreatedAt)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT m.id, m.from_id, m.to_id, m.body, m.created_at,
			uf.username, ut.username
		FROM messages m
		JOIN users uf ON m.from_id = uf.id
		JOIN users ut ON m.to_id = ut.id
		WHERE m.id = $1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.FromID, &msg.ToID, &msg.Body, &msg.CreatedAt,
		&msg.FromUsername, &msg.ToUsername,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

func (r *MessageRepo) ListByPair(ctx context.Context, userA, userB uuid.UUID, limit int) ([]domain.Message, error) {
	query := `
		SELECT m.id, m.from_id, m.to_id, m.body, m.created_at,
			uf.username, ut.username
		FROM messages m
		JOIN users uf ON m.from_id = uf.id
		JOIN users ut ON m.to_id = ut.id
		WHERE LEAST(m.from_id, m.to_id) = LEAST($1::uuid, $2::uuid)
		  AND GREATEST(m.from_id, m.to_id) = GREATEST($1::uuid, $2::uuid)
		ORDER BY m.created_at ASC, m.id ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, userA, userB, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID, &msg.FromID, &msg.ToID, &msg.Body, &msg.CreatedAt,
			&msg.FromUsername, &msg.ToUsername,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (r *MessageRepo) DeleteByPair(ctx context.Context, userA, userB uuid.UUID) error {
	query := `
		DELETE FROM messages
		WHERE LEAST(from_id, to_id) = LEAST($1::uuid, $2::uuid)
		  AND GREATEST(from_id, to_id) = GREATEST($1::uuid, $2::uuid)`
	_, err := r.pool.Exec(ctx, query, userA, userB)
	return err
}
