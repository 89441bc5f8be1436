package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/edulib/library-service/library/internal/errs"
	"github.com/edulib/library-service/library/internal/model"
)

var userColumns = []string{
	"id", "name", "email", "student_id", "user_type", "active", "total_fine_pending", "created_at",
}

func (r *repository) CreateUser(ctx context.Context, req model.CreateUserRequest) (model.User, error) {
	query, args, err := qb.Insert(usersTableName).
		Columns("name", "email", "student_id", "user_type").
		Values(req.Name, req.Email, req.StudentID, req.UserType).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		r.log.Error("CreateUser", zap.String("email", req.Email), zap.Error(err))
		return model.User{}, translateConstraintViolation(err)
	}
	return user, nil
}

func (r *repository) UpdateUser(ctx context.Context, id int, req model.CreateUserRequest) (model.User, error) {
	query, args, err := qb.Update(usersTableName).
		Set("name", req.Name).
		Set("email", req.Email).
		Set("student_id", req.StudentID).
		Set("user_type", req.UserType).
		Where(sq.Eq{"id": id}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, translateConstraintViolation(err)
	}
	return user, nil
}

func (r *repository) DeleteUser(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		// a user with borrowings trips the fk constraint
		return translateConstraintViolation(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) GetUser(ctx context.Context, id int) (model.User, error) {
	return r.getUserBy(ctx, sq.Eq{"id": id})
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getUserBy(ctx, sq.Eq{"email": email})
}

func (r *repository) GetUserByStudentID(ctx context.Context, studentID string) (model.User, error) {
	return r.getUserBy(ctx, sq.Eq{"student_id": studentID})
}

func (r *repository) ListUsers(ctx context.Context) ([]model.User, error) {
	return r.selectUsers(ctx, qb.Select(userColumns...).From(usersTableName).OrderBy("id"))
}

func (r *repository) ListUsersByType(ctx context.Context, userType model.UserType) ([]model.User, error) {
	return r.selectUsers(ctx, qb.Select(userColumns...).
		From(usersTableName).
		Where(sq.Eq{"user_type": userType}).
		OrderBy("id"))
}

func (r *repository) SearchUsers(ctx context.Context, keyword string) ([]model.User, error) {
	pattern := "%" + keyword + "%"
	return r.selectUsers(ctx, qb.Select(userColumns...).
		From(usersTableName).
		Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"email": pattern},
			sq.ILike{"student_id": pattern},
		}).
		OrderBy("id"))
}

func (r *repository) SetActive(ctx context.Context, id int, active bool) error {
	res, err := r.db.ExecContext(ctx, `update users set active = $2 where id = $1`, id, active)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) PayAllFines(ctx context.Context, userID int) (float64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck

	var amount float64
	if err := tx.QueryRowContext(ctx,
		`select total_fine_pending from users where id = $1 for update`, userID).Scan(&amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`update users set total_fine_pending = 0 where id = $1`, userID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`update borrowings set fine_amount = 0, fine_paid = true where user_id = $1 and fine_paid = false and fine_amount > 0`, userID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return amount, nil
}

func (r *repository) getUserBy(ctx context.Context, pred sq.Eq) (model.User, error) {
	query, args, err := qb.Select(userColumns...).
		From(usersTableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *repository) selectUsers(ctx context.Context, b sq.SelectBuilder) ([]model.User, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	items := make([]model.User, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.log.Error("selectUsers", zap.String("q", query), zap.Any("args", args))
		return nil, err
	}
	return items, nil
}

func translateConstraintViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation, pgerrcode.ForeignKeyViolation:
			return errs.ErrConflict
		}
	}
	return err
}
