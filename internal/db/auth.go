package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

var ErrAdminUserNotFound = errors.New("admin user not found")

type AdminUser struct {
	ID           int64
	LoginID      string
	PasswordHash string
}

func (db *Postgres) GetAdminUserByLoginID(ctx context.Context, loginID string) (*AdminUser, error) {
	var u AdminUser
	err := db.Pool.QueryRow(ctx,
		`SELECT id, login_id, password_hash FROM admin_users WHERE login_id = $1`, loginID,
	).Scan(&u.ID, &u.LoginID, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (db *Postgres) GetAdminUserByID(ctx context.Context, id int64) (*AdminUser, error) {
	var u AdminUser
	err := db.Pool.QueryRow(ctx,
		`SELECT id, login_id, password_hash FROM admin_users WHERE id = $1`, id,
	).Scan(&u.ID, &u.LoginID, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpsertAdminUser - 기동 시 환경변수 기반 관리자 계정 시딩에 사용
func (db *Postgres) UpsertAdminUser(ctx context.Context, loginID, passwordHash string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO admin_users (login_id, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (login_id) DO UPDATE SET password_hash = EXCLUDED.password_hash`,
		loginID, passwordHash)
	return err
}
