package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mzaikin/courier/internal/domain"
	"github.com/mzaikin/courier/internal/repository"
)

const userColumns = "id, username, password_hash, is_online, last_seen, theme, pinned_peers, created_at, updated_at"

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, is_online, last_seen, theme, pinned_peers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.IsOnline,
		user.LastSeen, user.Theme, user.PinnedPeers, user.CreatedAt, user.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicateUsername
	}
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.IsOnline,
		&u.LastSeen, &u.Theme, &u.PinnedPeers, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &u, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *UserRepo) Search(ctx context.Context, selfID uuid.UUID, prefix string, limit int) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username ILIKE $2 || '%' AND id <> $1
		ORDER BY username ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, selfID, likeEscaper.Replace(prefix), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.PasswordHash, &u.IsOnline,
			&u.LastSeen, &u.Theme, &u.PinnedPeers, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) SetPresence(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error {
	query := `UPDATE users SET is_online = $2, last_seen = $3, updated_at = now() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, online, lastSeen)
	return err
}

func (r *UserRepo) SetTheme(ctx context.Context, id uuid.UUID, theme string) error {
	query := `UPDATE users SET theme = $2, updated_at = now() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, theme)
	return err
}

// AddPin is idempotent: pinning an already-pinned peer leaves the row untouched.
func (r *UserRepo) AddPin(ctx context.Context, id, peerID uuid.UUID) error {
	query := `
		UPDATE users
		SET pinned_peers = array_append(pinned_peers, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(pinned_peers))`
	_, err := r.pool.Exec(ctx, query, id, peerID)
	return err
}

func (r *UserRepo) RemovePin(ctx context.Context, id, peerID uuid.UUID) error {
	query := `
		UPDATE users
		SET pinned_peers = array_remove(pinned_peers, $2), updated_at = now()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, peerID)
	return err
}
