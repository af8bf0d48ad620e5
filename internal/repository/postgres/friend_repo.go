package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mzaikin/courier/internal/domain"
	"github.com/mzaikin/courier/internal/repository"
)

const uniqueViolation = "23505"

type FriendRepo struct {
	pool *pgxpool.Pool
}

func NewFriendRepo(pool *pgxpool.Pool) *FriendRepo {
	return &FriendRepo{pool: pool}
}

func (r *FriendRepo) CreateRequest(ctx context.Context, req *domain.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (id, from_id, to_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, req.ID, req.FromID, req.ToID, req.Status, req.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicatePair
	}
	return err
}

func (r *FriendRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FriendRequest, error) {
	query := `
		SELECT id, from_id, to_id, status, created_at
		FROM friend_requests
		WHERE id = $1`
	var req domain.FriendRequest
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.FromID, &req.ToID, &req.Status, &req.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &req, err
}

func (r *FriendRepo) GetByPair(ctx context.Context, userA, userB uuid.UUID) (*domain.FriendRequest, error) {
	query := `
		SELECT id, from_id, to_id, status, created_at
		FROM friend_requests
		WHERE LEAST(from_id, to_id) = LEAST($1::uuid, $2::uuid)
		  AND GREATEST(from_id, to_id) = GREATEST($1::uuid, $2::uuid)`
	var req domain.FriendRequest
	err := r.pool.QueryRow(ctx, query, userA, userB).Scan(
		&req.ID, &req.FromID, &req.ToID, &req.Status, &req.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &req, err
}

func (r *FriendRepo) Accept(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE friend_requests SET status = 'accepted' WHERE id = $1`, id)
	return err
}

func (r *FriendRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM friend_requests WHERE id = $1`, id)
	return err
}

func (r *FriendRepo) ListPendingIncoming(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	query := `
		SELECT r.id, r.from_id, r.to_id, r.status, r.created_at,
			u.username, u.is_online
		FROM friend_requests r
		JOIN users u ON r.from_id = u.id
		WHERE r.to_id = $1 AND r.status = 'pending'
		ORDER BY r.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.FriendRequest
	for rows.Next() {
		var req domain.FriendRequest
		if err := rows.Scan(
			&req.ID, &req.FromID, &req.ToID, &req.Status, &req.CreatedAt,
			&req.FromUsername, &req.FromOnline,
		); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// ListFriends returns the peers of all accepted relations, pinned chats
// first, then alphabetically by username.
func (r *FriendRepo) ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.Friend, error) {
	query := `
		SELECT
			CASE WHEN r.from_id = $1 THEN r.to_id ELSE r.from_id END AS friend_id,
			u.username, u.is_online, u.last_seen,
			(CASE WHEN r.from_id = $1 THEN r.to_id ELSE r.from_id END) = ANY(me.pinned_peers) AS is_pinned
		FROM friend_requests r
		JOIN users u ON u.id = CASE WHEN r.from_id = $1 THEN r.to_id ELSE r.from_id END
		JOIN users me ON me.id = $1
		WHERE (r.from_id = $1 OR r.to_id = $1) AND r.status = 'accepted'
		ORDER BY is_pinned DESC, u.username ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []domain.Friend
	for rows.Next() {
		var f domain.Friend
		if err := rows.Scan(&f.ID, &f.Username, &f.IsOnline, &f.LastSeen, &f.IsPinned); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

func (r *FriendRepo) ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT CASE WHEN from_id = $1 THEN to_id ELSE from_id END
		FROM friend_requests
		WHERE (from_id = $1 OR to_id = $1) AND status = 'accepted'`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *FriendRepo) AreFriends(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE LEAST(from_id, to_id) = LEAST($1::uuid, $2::uuid)
			  AND GREATEST(from_id, to_id) = GREATEST($1::uuid, $2::uuid)
			  AND status = 'accepted')`
	var ok bool
	err := r.pool.QueryRow(ctx, query, userA, userB).Scan(&ok)
	return ok, err
}
