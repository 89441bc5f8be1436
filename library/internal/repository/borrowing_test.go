package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulib/library-service/library/internal/errs"
	"github.com/edulib/library-service/library/internal/model"
	"github.com/edulib/library-service/library/internal/repository"
)

var userColumns = []string{"id", "name", "email", "student_id", "user_type", "active", "total_fine_pending", "created_at"}

func activeStudentRow(finePending float64) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).
		AddRow(7, "Ada Lovelace", "ada@example.edu", "S-1001", "STUDENT", true, finePending, time.Now())
}

func newMockRepo(t *testing.T) (repository.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := repository.NewRepository(sqlx.NewDb(db, "sqlmock"), zap.NewExample().Named("test"))
	require.NoError(t, err)
	return repo, mock
}

func TestRepository_CountCurrentByUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`select count\(\*\) from borrowings where user_id = \$1 and status in \('ACTIVE', 'OVERDUE'\)`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountCurrentByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateBorrowing(t *testing.T) {
	t.Run("limit exceeded rolls back", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`from users where id = \$1 for update`).
			WithArgs(7).
			WillReturnRows(activeStudentRow(0))
		mock.ExpectQuery(`select count\(\*\) from borrowings`).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectRollback()

		_, err := repo.CreateBorrowing(context.Background(), 7, 3, 14, 100)
		require.ErrorIs(t, err, errs.ErrLimitExceeded)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fines over threshold block the borrow", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`from users where id = \$1 for update`).
			WithArgs(7).
			WillReturnRows(activeStudentRow(120))
		mock.ExpectQuery(`select count\(\*\) from borrowings`).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectRollback()

		_, err := repo.CreateBorrowing(context.Background(), 7, 3, 14, 100)
		require.ErrorIs(t, err, errs.ErrLimitExceeded)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`from users where id = \$1 for update`).
			WithArgs(42).
			WillReturnRows(sqlmock.NewRows(userColumns))
		mock.ExpectRollback()

		_, err := repo.CreateBorrowing(context.Background(), 42, 3, 14, 100)
		require.ErrorIs(t, err, errs.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no copies available", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`from users where id = \$1 for update`).
			WithArgs(7).
			WillReturnRows(activeStudentRow(0))
		mock.ExpectQuery(`select count\(\*\) from borrowings`).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`update books set available_count = available_count - 1`).
			WithArgs(3).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`select exists\(select 1 from books where id = \$1\)`).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := repo.CreateBorrowing(context.Background(), 7, 3, 14, 100)
		require.ErrorIs(t, err, errs.ErrUnavailable)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_ReturnBorrowing(t *testing.T) {
	borrowingRowColumns := []string{"id", "borrowing_uid", "user_id", "book_id", "borrow_date", "due_date", "return_date", "status", "fine_amount", "fine_paid"}

	t.Run("five days late credits the fine and restores the copy", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		borrowed := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
		due := time.Date(2024, time.January, 24, 0, 0, 0, 0, time.UTC)
		today := time.Date(2024, time.January, 29, 0, 0, 0, 0, time.UTC)

		mock.ExpectBegin()
		mock.ExpectQuery(`from borrowings where id = \$1 for update`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(borrowingRowColumns).
				AddRow(1, "9f3a2d1c-6d0e-4f1b-8a6e-0c9b1d2e3f4a", 7, 3, borrowed, due, nil, "ACTIVE", 0, false))
		mock.ExpectQuery(`select current_date`).
			WillReturnRows(sqlmock.NewRows([]string{"current_date"}).AddRow(today))
		mock.ExpectQuery(`update borrowings set return_date = current_date, status = 'RETURNED', fine_amount = \$2 where id = \$1 returning \*`).
			WithArgs(1, 2.5).
			WillReturnRows(sqlmock.NewRows(borrowingRowColumns).
				AddRow(1, "9f3a2d1c-6d0e-4f1b-8a6e-0c9b1d2e3f4a", 7, 3, borrowed, due, today, "RETURNED", 2.5, false))
		mock.ExpectExec(`update books set available_count = available_count \+ 1 where id = \$1`).
			WithArgs(3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`update users set total_fine_pending = total_fine_pending \+ \$2 where id = \$1`).
			WithArgs(7, 2.5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		b, err := repo.ReturnBorrowing(context.Background(), 1, 0.5)
		require.NoError(t, err)
		require.Equal(t, model.StatusReturned, b.Status)
		require.Equal(t, 2.5, b.FineAmount)
		require.NotNil(t, b.ReturnDate)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("on time leaves the fine alone", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		borrowed := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
		due := time.Date(2024, time.January, 24, 0, 0, 0, 0, time.UTC)
		today := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)

		mock.ExpectBegin()
		mock.ExpectQuery(`from borrowings where id = \$1 for update`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(borrowingRowColumns).
				AddRow(1, "9f3a2d1c-6d0e-4f1b-8a6e-0c9b1d2e3f4a", 7, 3, borrowed, due, nil, "ACTIVE", 0, false))
		mock.ExpectQuery(`select current_date`).
			WillReturnRows(sqlmock.NewRows([]string{"current_date"}).AddRow(today))
		mock.ExpectQuery(`update borrowings set return_date = current_date, status = 'RETURNED', fine_amount = \$2 where id = \$1 returning \*`).
			WithArgs(1, 0.0).
			WillReturnRows(sqlmock.NewRows(borrowingRowColumns).
				AddRow(1, "9f3a2d1c-6d0e-4f1b-8a6e-0c9b1d2e3f4a", 7, 3, borrowed, due, today, "RETURNED", 0, false))
		mock.ExpectExec(`update books set available_count = available_count \+ 1 where id = \$1`).
			WithArgs(3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		b, err := repo.ReturnBorrowing(context.Background(), 1, 0.5)
		require.NoError(t, err)
		require.Equal(t, model.StatusReturned, b.Status)
		require.Equal(t, 0.0, b.FineAmount)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already returned", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		returned := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery(`from borrowings where id = \$1 for update`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "borrowing_uid", "user_id", "book_id", "borrow_date", "due_date", "return_date", "status", "fine_amount", "fine_paid"}).
				AddRow(1, "9f3a2d1c-6d0e-4f1b-8a6e-0c9b1d2e3f4a", 7, 3, returned.AddDate(0, 0, -20), returned.AddDate(0, 0, -6), returned, "RETURNED", 2.5, false))
		mock.ExpectRollback()

		_, err := repo.ReturnBorrowing(context.Background(), 1, 0.5)
		require.ErrorIs(t, err, errs.ErrInvalidState)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_PayFine(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`select user_id, fine_amount from borrowings where id = \$1 for update`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "fine_amount"}).AddRow(7, 2.5))
	mock.ExpectExec(`update borrowings set fine_amount = 0, fine_paid = true where id = \$1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`update users set total_fine_pending = greatest\(total_fine_pending - \$2, 0\) where id = \$1`).
		WithArgs(7, 2.5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	amount, err := repo.PayFine(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 2.5, amount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus(t *testing.T) {
	t.Run("returned is terminal", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`select status from borrowings where id = \$1 for update`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("RETURNED"))
		mock.ExpectRollback()

		err := repo.UpdateStatus(context.Background(), 1, model.StatusActive)
		require.ErrorIs(t, err, errs.ErrInvalidState)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ok", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`select status from borrowings where id = \$1 for update`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("ACTIVE"))
		mock.ExpectExec(`update borrowings set status = \$2 where id = \$1`).
			WithArgs(1, model.StatusOverdue).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.UpdateStatus(context.Background(), 1, model.StatusOverdue)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_ListOverdue(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "borrowing_uid", "user_id", "book_id", "borrow_date", "due_date", "return_date", "status", "fine_amount", "fine_paid"}).
		AddRow(1, "9f3a2d1c-6d0e-4f1b-8a6e-0c9b1d2e3f4a", 7, 3, now.AddDate(0, 0, -20), now.AddDate(0, 0, -6), nil, "OVERDUE", 0, false)

	mock.ExpectQuery(`FROM borrowings WHERE status IN \(\$1,\$2\) AND due_date < current_date ORDER BY id`).
		WithArgs("ACTIVE", "OVERDUE").
		WillReturnRows(rows)

	items, err := repo.ListOverdue(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, model.StatusOverdue, items[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteBorrowing(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`delete from borrowings where id = \$1`).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.DeleteBorrowing(context.Background(), 1))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`delete from borrowings where id = \$1`).
			WithArgs(42).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteBorrowing(context.Background(), 42)
		require.ErrorIs(t, err, errs.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
