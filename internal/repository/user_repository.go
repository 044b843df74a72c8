package repository

import (
	"context"      // deadlines and cancellation
	"database/sql" // SQL database access
	"errors"       // sentinel error matching
	"fmt"          // error wrapping and formatting
	"strings"      // string manipulation utilities

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/google/uuid"         // random identifiers

	"github.com/iliyamo/cms-auth/internal/model" // domain models
)

const userColumns = "id,email,username,password_hash,role,is_active,created_at"

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	var role string
	err := s.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &role, &u.IsActive, &u.CreatedAt)
	u.Role = model.Role(role)
	return u, err
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// GetByIdentifier looks a principal up by email when identifier contains
// an "@", otherwise by username.  Emails are matched lower-cased.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return r.getOne(ctx,
			"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
			strings.ToLower(identifier))
	}
	return r.getOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1",
		identifier)
}

// GetByID fetches a principal by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// List returns principals ordered by creation time, newest first.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create inserts a principal with an already hashed credential and returns
// its generated id.
func (r *UserRepo) Create(ctx context.Context, email, username, passwordHash string, role model.Role) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id,email,username,password_hash,role) VALUES (?,?,?,?,?)",
		id, strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(username), passwordHash, string(role))
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}
