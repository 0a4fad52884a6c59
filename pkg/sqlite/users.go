package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/sepehr-data/mithra-pay/pkg/models"
)

const userColumns = `id, phone, email, full_name, password_hash, is_active, is_phone_verified, created_at, updated_at`

type UserStore struct {
	*DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{DB: db}
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *UserStore) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone = ?`, phone)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (s *UserStore) getOne(ctx context.Context, query, arg string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	if u.Roles, err = loadRoles(ctx, s.db, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts the user and its roles together.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	id := uuid.NewString()
	err := s.execTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, u.Phone, nullString(u.Email), u.FullName, u.PasswordHash, u.IsActive,
			u.IsPhoneVerified, formatTime(u.CreatedAt), formatTime(u.UpdatedAt)); err != nil {
			return classify(err)
		}
		for _, role := range u.Roles {
			if err := insertRole(ctx, q, id, role); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (s *UserStore) Update(ctx context.Context, u *models.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET email = ?, full_name = ?, password_hash = ?, is_active = ?,
			is_phone_verified = ?, updated_at = ?
		WHERE id = ?`,
		nullString(u.Email), u.FullName, u.PasswordHash, u.IsActive, u.IsPhoneVerified,
		formatTime(u.UpdatedAt), u.ID)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *UserStore) AddRole(ctx context.Context, userID, role string) error {
	return insertRole(ctx, s.db, userID, role)
}

func insertRole(ctx context.Context, q querier, userID, role string) error {
	_, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`, userID, role)
	if err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

func loadRoles(ctx context.Context, q querier, userID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u                    models.User
		email                sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&u.ID, &u.Phone, &email, &u.FullName, &u.PasswordHash, &u.IsActive,
		&u.IsPhoneVerified, &createdAt, &updatedAt); err != nil {
		return nil, classify(err)
	}
	u.Email = email.String
	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
