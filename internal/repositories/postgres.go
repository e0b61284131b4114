package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidfriends/friendgraph/internal/db"
	"github.com/vidfriends/friendgraph/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, user.ID, user.Email, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "email", email)
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, column, value string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// column is always one of the literals passed by FindByEmail/FindByID.
	row := conn.QueryRow(ctx, fmt.Sprintf(`
        SELECT id, email, password_hash, created_at, updated_at
        FROM users
        WHERE %s = $1
    `, column), value)

	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by %s: %w", column, err)
	}

	return user, nil
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, password_hash = $3, updated_at = $4
        WHERE id = $1
    `, user.ID, user.Email, user.Password, user.UpdatedAt)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// querier is satisfied by both pooled connections and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// friendshipQueries issues friendship statements against a single querier.
// Inside a transaction lookups take row locks so concurrent accepts serialise.
type friendshipQueries struct {
	q    querier
	lock bool
}

func (f friendshipQueries) Find(ctx context.Context, userID, friendUserID string) (models.Friendship, error) {
	query := `
        SELECT id, user_id, friend_user_id, status, created_at, updated_at
        FROM friendships
        WHERE user_id = $1 AND friend_user_id = $2
    `
	if f.lock {
		query += " FOR UPDATE"
	}

	var friendship models.Friendship
	err := f.q.QueryRow(ctx, query, userID, friendUserID).Scan(
		&friendship.ID,
		&friendship.UserID,
		&friendship.FriendUserID,
		&friendship.Status,
		&friendship.CreatedAt,
		&friendship.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Friendship{}, ErrNotFound
		}
		return models.Friendship{}, fmt.Errorf("select friendship: %w", err)
	}

	friendship.CreatedAt = friendship.CreatedAt.UTC()
	friendship.UpdatedAt = friendship.UpdatedAt.UTC()
	return friendship, nil
}

func (f friendshipQueries) Create(ctx context.Context, friendship models.Friendship) error {
	_, err := f.q.Exec(ctx, `
        INSERT INTO friendships (id, user_id, friend_user_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, friendship.ID, friendship.UserID, friendship.FriendUserID, string(friendship.Status), friendship.CreatedAt, friendship.UpdatedAt)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return ErrConflict
		case pgForeignKeyViolation:
			return ErrNotFound
		}
		return fmt.Errorf("insert friendship: %w", err)
	}

	return nil
}

func (f friendshipQueries) UpdateStatus(ctx context.Context, userID, friendUserID string, status models.FriendshipStatus) error {
	tag, err := f.q.Exec(ctx, `
        UPDATE friendships
        SET status = $3, updated_at = NOW()
        WHERE user_id = $1 AND friend_user_id = $2
    `, userID, friendUserID, string(status))
	if err != nil {
		return fmt.Errorf("update friendship status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (f friendshipQueries) TransitionStatus(ctx context.Context, userID, friendUserID string, from, to models.FriendshipStatus) error {
	tag, err := f.q.Exec(ctx, `
        UPDATE friendships
        SET status = $4, updated_at = NOW()
        WHERE user_id = $1 AND friend_user_id = $2 AND status = $3
    `, userID, friendUserID, string(from), string(to))
	if err != nil {
		return fmt.Errorf("transition friendship status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresFriendshipRepository provides PostgreSQL-backed persistence for friendships.
type PostgresFriendshipRepository struct {
	pool db.Pool
}

// NewPostgresFriendshipRepository constructs a friendship repository backed by PostgreSQL.
func NewPostgresFriendshipRepository(pool db.Pool) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{pool: pool}
}

// Find returns the directed edge from userID to friendUserID.
func (r *PostgresFriendshipRepository) Find(ctx context.Context, userID, friendUserID string) (models.Friendship, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Friendship{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return friendshipQueries{q: conn}.Find(ctx, userID, friendUserID)
}

// Create inserts a new directed edge.
func (r *PostgresFriendshipRepository) Create(ctx context.Context, friendship models.Friendship) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return friendshipQueries{q: conn}.Create(ctx, friendship)
}

// UpdateStatus sets the status of an existing directed edge.
func (r *PostgresFriendshipRepository) UpdateStatus(ctx context.Context, userID, friendUserID string, status models.FriendshipStatus) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return friendshipQueries{q: conn}.UpdateStatus(ctx, userID, friendUserID, status)
}

// TransitionStatus sets the status of a directed edge only while it still holds from.
func (r *PostgresFriendshipRepository) TransitionStatus(ctx context.Context, userID, friendUserID string, from, to models.FriendshipStatus) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return friendshipQueries{q: conn}.TransitionStatus(ctx, userID, friendUserID, from, to)
}

// WithinTx runs fn in a read-committed transaction that is committed only when
// fn returns nil.
func (r *PostgresFriendshipRepository) WithinTx(ctx context.Context, fn func(FriendshipQueries) error) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(friendshipQueries{q: tx, lock: true})
	})
}

// ListOutgoing returns edges owned by userID with the given status.
func (r *PostgresFriendshipRepository) ListOutgoing(ctx context.Context, userID string, status models.FriendshipStatus) ([]models.Friendship, error) {
	return r.list(ctx, "user_id", userID, status)
}

// ListIncoming returns edges pointing at userID with the given status.
func (r *PostgresFriendshipRepository) ListIncoming(ctx context.Context, userID string, status models.FriendshipStatus) ([]models.Friendship, error) {
	return r.list(ctx, "friend_user_id", userID, status)
}

func (r *PostgresFriendshipRepository) list(ctx context.Context, column, userID string, status models.FriendshipStatus) ([]models.Friendship, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT id, user_id, friend_user_id, status, created_at, updated_at
        FROM friendships
        WHERE %s = $1 AND status = $2
        ORDER BY updated_at DESC
    `, column), userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("query friendships: %w", err)
	}
	defer rows.Close()

	var friendships []models.Friendship
	for rows.Next() {
		var f models.Friendship
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendUserID, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		f.CreatedAt = f.CreatedAt.UTC()
		f.UpdatedAt = f.UpdatedAt.UTC()
		friendships = append(friendships, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friendships: %w", err)
	}

	return friendships, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ FriendshipRepository = (*PostgresFriendshipRepository)(nil)
