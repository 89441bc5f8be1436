package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/edulib/library-service/library/internal/errs"
	"github.com/edulib/library-service/library/internal/model"
)

func TestRepository_CreateUser(t *testing.T) {
	t.Run("duplicate email", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`INSERT INTO users \(name,email,student_id,user_type\)`).
			WithArgs("Ada Lovelace", "ada@example.edu", "S-1001", model.UserTypeStudent).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		_, err := repo.CreateUser(context.Background(), model.CreateUserRequest{
			Name:      "Ada Lovelace",
			Email:     "ada@example.edu",
			StudentID: "S-1001",
			UserType:  model.UserTypeStudent,
		})
		require.ErrorIs(t, err, errs.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_DeleteUser(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`delete from users where id = \$1`).
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.DeleteUser(context.Background(), 7))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user with borrowings is a conflict", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`delete from users where id = \$1`).
			WithArgs(7).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

		err := repo.DeleteUser(context.Background(), 7)
		require.ErrorIs(t, err, errs.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`delete from users where id = \$1`).
			WithArgs(42).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteUser(context.Background(), 42)
		require.ErrorIs(t, err, errs.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
