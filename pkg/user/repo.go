package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Columns is the select list matching ScanUser. The session store reuses it
// for its full-mode join.
const Columns = "users.id, users.name, users.email, users.password, users.psico_email, users.auto_report, users.type, users.created_at, users.updated_at"

type MySQLRepo struct {
	DB *sql.DB
}

func NewMySQLRepo(db *sql.DB) *MySQLRepo {
	return &MySQLRepo{DB: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// ScanUser reads one row selected with Columns, plus any trailing dest.
func ScanUser(row scanner, u *User, extra ...any) error {
	var psico sql.NullString
	dest := append([]any{
		&u.ID, &u.Name, &u.Email, &u.Password, &psico, &u.AutoReport, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	if psico.Valid {
		u.PsicoEmail = &psico.String
	}
	return nil
}

func (r *MySQLRepo) Create(ctx context.Context, u *User) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password, psico_email, auto_report, type, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		u.Name, u.Email, u.Password, u.PsicoEmail, u.AutoReport, string(u.Role), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user id: %w", err)
	}
	u.ID = id
	return nil
}

func (r *MySQLRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	return r.findOne(ctx, "SELECT "+Columns+" FROM users WHERE users.id = ?", id)
}

func (r *MySQLRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, "SELECT "+Columns+" FROM users WHERE users.email = ?", email)
}

func (r *MySQLRepo) findOne(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := ScanUser(r.DB.QueryRowContext(ctx, query, arg), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *MySQLRepo) List(ctx context.Context) ([]User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+Columns+" FROM users ORDER BY users.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := ScanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *MySQLRepo) Update(ctx context.Context, id int64, upd Update, at time.Time) error {
	sets := []string{"updated_at = ?"}
	args := []any{at}

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *upd.Email)
	}
	if upd.Password != nil {
		sets = append(sets, "password = ?")
		args = append(args, *upd.Password)
	}
	if upd.PsicoEmail != nil {
		sets = append(sets, "psico_email = ?")
		args = append(args, *upd.PsicoEmail)
	}
	if upd.AutoReport != nil {
		sets = append(sets, "auto_report = ?")
		args = append(args, *upd.AutoReport)
	}
	if upd.Role != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*upd.Role))
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MySQLRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
