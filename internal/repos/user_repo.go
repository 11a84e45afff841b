package repos

import (
	"context"
	"strings"

	"smartdeals/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
	  INSERT INTO users(id,email,name,password_hash,created_at)
	  VALUES(?,?,?,?,?)`), u.ID, lowerTrim(u.Email), u.Name, u.Hash, u.CreatedAt)
	return err
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT id,email,name,password_hash,created_at FROM users WHERE email=?`), lowerTrim(email))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) BindSession(ctx context.Context, token, userID, now, expires string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
	  INSERT INTO sessions(token,user_id,created_at,expires_at)
	  VALUES(?,?,?,?)`), token, userID, now, expires)
	return err
}

// SessionUser resolves a live session token to its user. Expired or unknown
// tokens yield ErrNotFound.
func (r *UserRepo) SessionUser(ctx context.Context, token, now string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`
      SELECT u.id,u.email,u.name,u.password_hash,u.created_at
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.token=? AND s.expires_at > ?`), token, now)
	if err != nil {
		return nil, notFound(err, "session")
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM sessions WHERE token=?`), token)
	return err
}

// PurgeExpiredSessions drops sessions whose expiry is not after now.
func (r *UserRepo) PurgeExpiredSessions(ctx context.Context, now string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), now)
	if err != nil {
		return 0, err
	}
	return affected(res)
}

func lowerTrim(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
