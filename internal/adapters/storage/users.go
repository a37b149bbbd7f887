package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
)

// Users implements core.UserStore. Emails are stored lowercased.
type Users struct{ d *DB }

func (d *DB) Users() *Users { return &Users{d: d} }

const userColumns = `id, name, email, phone, city, birth_date, gender, can_host, password_hash, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		u       domain.User
		birth   sql.NullInt64
		canHost int
		created int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.City, &birth, &u.Gender, &canHost, &u.PasswordHash, &created); err != nil {
		return nil, err
	}
	u.BirthDate = nullTime(birth)
	u.CanHost = canHost != 0
	u.CreatedAt = fromMillis(created)
	return &u, nil
}

func (s *Users) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	u, err := scanUser(s.d.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = ?`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (s *Users) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findOne(ctx, "id", id)
}

func (s *Users) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.d.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, strings.ToLower(u.Email), u.Phone, u.City, nullMillis(u.BirthDate), u.Gender,
		boolInt(u.CanHost), u.PasswordHash, toMillis(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Users) UpdateUser(ctx context.Context, u *domain.User) error {
	res, err := s.d.db.ExecContext(ctx,
		`UPDATE users SET name = ?, phone = ?, city = ?, birth_date = ?, gender = ?, can_host = ?, password_hash = ?
		 WHERE id = ?`,
		u.Name, u.Phone, u.City, nullMillis(u.BirthDate), u.Gender, boolInt(u.CanHost), u.PasswordHash, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
