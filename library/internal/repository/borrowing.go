package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/edulib/library-service/library/internal/errs"
	"github.com/edulib/library-service/library/internal/model"
)

// statusCase derives OVERDUE lazily: a stored ACTIVE row past its due
// date reads as OVERDUE without any background job flipping the flag.
const statusCase = `case when status = 'ACTIVE' and due_date < current_date then 'OVERDUE' else status end`

var borrowingColumns = []string{
	"id", "borrowing_uid", "user_id", "book_id", "borrow_date", "due_date",
	"return_date", statusCase + " as status", "fine_amount", "fine_paid",
}

func (r *repository) CreateBorrowing(ctx context.Context, userID, bookID, borrowDays int, fineThreshold float64) (model.Borrowing, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Borrowing{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	var user model.User
	const userQ = `
	select id, name, email, student_id, user_type, active, total_fine_pending, created_at
	from users where id = $1 for update`
	if err := tx.GetContext(ctx, &user, userQ, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Borrowing{}, errs.ErrNotFound
		}
		return model.Borrowing{}, err
	}

	var count int
	const countQ = `
	select count(*) from borrowings
	where user_id = $1 and status in ('ACTIVE', 'OVERDUE')`
	if err := tx.QueryRowContext(ctx, countQ, userID).Scan(&count); err != nil {
		return model.Borrowing{}, err
	}
	if !model.CanBorrow(user, count, fineThreshold) {
		return model.Borrowing{}, errs.ErrLimitExceeded
	}

	res, err := tx.ExecContext(ctx,
		`update books set available_count = available_count - 1 where id = $1 and available_count > 0`, bookID)
	if err != nil {
		return model.Borrowing{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return model.Borrowing{}, err
	} else if n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`select exists(select 1 from books where id = $1)`, bookID).Scan(&exists); err != nil {
			return model.Borrowing{}, err
		}
		if !exists {
			return model.Borrowing{}, errs.ErrNotFound
		}
		return model.Borrowing{}, errs.ErrUnavailable
	}

	const insertQ = `
	insert into borrowings (borrowing_uid, user_id, book_id, borrow_date, due_date, status)
	values ($1, $2, $3, current_date, current_date + $4, 'ACTIVE')
	returning *`
	var b model.Borrowing
	if err := tx.GetContext(ctx, &b, insertQ, uuid.New(), userID, bookID, borrowDays); err != nil {
		r.log.Error("CreateBorrowing", zap.Int("userID", userID), zap.Int("bookID", bookID), zap.Error(err))
		return model.Borrowing{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Borrowing{}, err
	}
	return b, nil
}

func (r *repository) ReturnBorrowing(ctx context.Context, id int, ratePerDay float64) (model.Borrowing, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Borrowing{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	var b model.Borrowing
	const lockQ = `
	select id, borrowing_uid, user_id, book_id, borrow_date, due_date, return_date, status, fine_amount, fine_paid
	from borrowings where id = $1 for update`
	if err := tx.GetContext(ctx, &b, lockQ, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Borrowing{}, errs.ErrNotFound
		}
		return model.Borrowing{}, err
	}
	if b.Status == model.StatusReturned {
		return model.Borrowing{}, errs.ErrInvalidState
	}

	// the fine and return_date must come from the same clock, so take
	// today from the database rather than the process.
	var today time.Time
	if err := tx.QueryRowContext(ctx, `select current_date`).Scan(&today); err != nil {
		return model.Borrowing{}, err
	}
	fine := model.Fine(b.DueDate, today, ratePerDay)

	const returnQ = `
	update borrowings
	set return_date = current_date, status = 'RETURNED', fine_amount = $2
	where id = $1
	returning *`
	if err := tx.GetContext(ctx, &b, returnQ, id, fine); err != nil {
		return model.Borrowing{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`update books set available_count = available_count + 1 where id = $1`, b.BookID); err != nil {
		return model.Borrowing{}, err
	}
	if fine > 0 {
		if _, err := tx.ExecContext(ctx,
			`update users set total_fine_pending = total_fine_pending + $2 where id = $1`, b.UserID, fine); err != nil {
			return model.Borrowing{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Borrowing{}, err
	}
	return b, nil
}

func (r *repository) PayFine(ctx context.Context, id int) (float64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck

	var (
		userID int
		amount float64
	)
	const lockQ = `select user_id, fine_amount from borrowings where id = $1 for update`
	if err := tx.QueryRowContext(ctx, lockQ, id).Scan(&userID, &amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`update borrowings set fine_amount = 0, fine_paid = true where id = $1`, id); err != nil {
		return 0, err
	}
	// clamped at zero: totalFinePending never goes negative
	if _, err := tx.ExecContext(ctx,
		`update users set total_fine_pending = greatest(total_fine_pending - $2, 0) where id = $1`, userID, amount); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return amount, nil
}

// UpdateStatus is an administrative escape hatch. It refuses to
// resurrect a RETURNED borrowing but otherwise writes the stored
// status directly, bypassing lifecycle guards.
func (r *repository) UpdateStatus(ctx context.Context, id int, status model.BorrowingStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var current model.BorrowingStatus
	if err := tx.QueryRowContext(ctx,
		`select status from borrowings where id = $1 for update`, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.ErrNotFound
		}
		return err
	}
	if current == model.StatusReturned && status != model.StatusReturned {
		return errs.ErrInvalidState
	}
	if _, err := tx.ExecContext(ctx,
		`update borrowings set status = $2 where id = $1`, id, status); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *repository) DeleteBorrowing(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `delete from borrowings where id = $1`, id)
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

func (r *repository) GetBorrowing(ctx context.Context, id int) (model.Borrowing, error) {
	query, args, err := qb.Select(borrowingColumns...).
		From(borrowingsTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}
	var b model.Borrowing
	if err := r.db.GetContext(ctx, &b, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Borrowing{}, errs.ErrNotFound
		}
		return model.Borrowing{}, err
	}
	return b, nil
}

func (r *repository) ListBorrowings(ctx context.Context) ([]model.Borrowing, error) {
	return r.selectBorrowings(ctx, qb.Select(borrowingColumns...).From(borrowingsTableName).OrderBy("id"))
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]model.Borrowing, error) {
	return r.selectBorrowings(ctx, qb.Select(borrowingColumns...).
		From(borrowingsTableName).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id"))
}

func (r *repository) ListCurrentByUser(ctx context.Context, userID int) ([]model.Borrowing, error) {
	return r.selectBorrowings(ctx, qb.Select(borrowingColumns...).
		From(borrowingsTableName).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"status": []string{string(model.StatusActive), string(model.StatusOverdue)}}).
		OrderBy("id"))
}

// ListByStatus filters on the derived status, so querying OVERDUE also
// matches stored ACTIVE rows past their due date.
func (r *repository) ListByStatus(ctx context.Context, status model.BorrowingStatus) ([]model.Borrowing, error) {
	return r.selectBorrowings(ctx, qb.Select(borrowingColumns...).
		From(borrowingsTableName).
		Where(sq.Expr(statusCase+" = ?", status)).
		OrderBy("id"))
}

func (r *repository) ListOverdue(ctx context.Context) ([]model.Borrowing, error) {
	return r.selectBorrowings(ctx, qb.Select(borrowingColumns...).
		From(borrowingsTableName).
		Where(sq.Eq{"status": []string{string(model.StatusActive), string(model.StatusOverdue)}}).
		Where(sq.Expr("due_date < current_date")).
		OrderBy("id"))
}

func (r *repository) CountCurrentByUser(ctx context.Context, userID int) (int, error) {
	const q = `
	select count(*) from borrowings
	where user_id = $1 and status in ('ACTIVE', 'OVERDUE')`
	var count int
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) selectBorrowings(ctx context.Context, b sq.SelectBuilder) ([]model.Borrowing, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	items := make([]model.Borrowing, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.log.Error("selectBorrowings", zap.String("q", query), zap.Any("args", args))
		return nil, err
	}
	return items, nil
}
