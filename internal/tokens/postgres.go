package tokens

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"io.winapps.pushrelay/internal/apperr"
	notificationsmodels "io.winapps.pushrelay/internal/models/notifications"
)

// DBTX is the subset of *pgxpool.Pool and pgx.Tx used by PostgresStore.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pinger is implemented by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

const tokenColumns = `id::text, user_id, expo_token, created_at, updated_at`

const (
	upsertTokenQuery = `
		INSERT INTO expo_tokens (user_id, expo_token)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET expo_token = EXCLUDED.expo_token, updated_at = NOW()
		RETURNING ` + tokenColumns

	getTokenByIDQuery     = `SELECT ` + tokenColumns + ` FROM expo_tokens WHERE id = $1`
	getTokenByUserIDQuery = `SELECT ` + tokenColumns + ` FROM expo_tokens WHERE user_id = $1`
	listTokensQuery       = `SELECT ` + tokenColumns + ` FROM expo_tokens`

	updateTokenQuery = `
		UPDATE expo_tokens
		SET user_id = COALESCE($2, user_id),
			expo_token = COALESCE($3, expo_token),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + tokenColumns

	deleteTokenByIDQuery     = `DELETE FROM expo_tokens WHERE id = $1 RETURNING ` + tokenColumns
	deleteTokenByUserIDQuery = `DELETE FROM expo_tokens WHERE user_id = $1 RETURNING ` + tokenColumns
	countTokensQuery         = `SELECT COUNT(*) FROM expo_tokens`
)

// PostgreSQL error codes the store translates.
const (
	pgUniqueViolation = "23505"
	pgInvalidTextRepr = "22P02"
)

const storeUnavailableMsg = "Token store unavailable"

// PostgresStore keeps tokens in the expo_tokens table. Concurrent upserts for
// one user serialize on the unique index.
type PostgresStore struct {
	db     DBTX
	pinger Pinger
	close  func()
}

// NewPostgresStore wraps db. pinger and closeFn may be nil.
func NewPostgresStore(db DBTX, pinger Pinger, closeFn func()) *PostgresStore {
	return &PostgresStore{db: db, pinger: pinger, close: closeFn}
}

func (s *PostgresStore) Upsert(ctx context.Context, userID, token string) (*notificationsmodels.ExpoToken, error) {
	rec, err := scanToken(s.db.QueryRow(ctx, upsertTokenQuery, userID, token))
	if err != nil {
		return nil, mapPgError(err, errNotFound())
	}
	return rec, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*notificationsmodels.ExpoToken, error) {
	rec, err := scanToken(s.db.QueryRow(ctx, getTokenByIDQuery, id))
	if err != nil {
		return nil, mapPgError(err, errNotFound())
	}
	return rec, nil
}

func (s *PostgresStore) GetByUserID(ctx context.Context, userID string) (*notificationsmodels.ExpoToken, error) {
	rec, err := scanToken(s.db.QueryRow(ctx, getTokenByUserIDQuery, userID))
	if err != nil {
		return nil, mapPgError(err, errUserNotFound(userID))
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]notificationsmodels.ExpoToken, error) {
	rows, err := s.db.Query(ctx, listTokensQuery)
	if err != nil {
		return nil, mapPgError(err, errNotFound())
	}
	defer rows.Close()

	out := []notificationsmodels.ExpoToken{}
	for rows.Next() {
		rec, err := scanToken(rows)
		if err != nil {
			return nil, mapPgError(err, errNotFound())
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, errNotFound())
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, fields UpdateFields) (*notificationsmodels.ExpoToken, error) {
	if fields.Empty() {
		return nil, errNoFields()
	}

	rec, err := scanToken(s.db.QueryRow(ctx, updateTokenQuery, id, fields.UserID, fields.Token))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && fields.UserID != nil {
			return nil, errUserTaken(*fields.UserID)
		}
		return nil, mapPgError(err, errNotFound())
	}
	return rec, nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id string) (*notificationsmodels.ExpoToken, error) {
	rec, err := scanToken(s.db.QueryRow(ctx, deleteTokenByIDQuery, id))
	if err != nil {
		return nil, mapPgError(err, errNotFound())
	}
	return rec, nil
}

func (s *PostgresStore) DeleteByUserID(ctx context.Context, userID string) (*notificationsmodels.ExpoToken, error) {
	rec, err := scanToken(s.db.QueryRow(ctx, deleteTokenByUserIDQuery, userID))
	if err != nil {
		return nil, mapPgError(err, errUserNotFound(userID))
	}
	return rec, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, countTokensQuery).Scan(&n); err != nil {
		return 0, mapPgError(err, errNotFound())
	}
	return n, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	if err := s.pinger.Ping(ctx); err != nil {
		return apperr.Wrap(apperr.CodeStoreUnavailable, storeUnavailableMsg, err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	if s.close != nil {
		s.close()
	}
}

func scanToken(row pgx.Row) (*notificationsmodels.ExpoToken, error) {
	var rec notificationsmodels.ExpoToken
	err := row.Scan(&rec.ID, &rec.UserID, &rec.ExpoPushToken, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// mapPgError translates driver errors into the apperr taxonomy. A malformed
// UUID can never match a row, so it is reported like a missing one.
func mapPgError(err error, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepr {
		return notFound
	}
	return apperr.Wrap(apperr.CodeStoreUnavailable, storeUnavailableMsg, err)
}

var _ Store = (*PostgresStore)(nil)
