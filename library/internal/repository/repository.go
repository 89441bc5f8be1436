package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/edulib/library-service/library/internal/model"
	"github.com/edulib/library-service/pkg/kafka"
)

//go:generate go run github.com/golang/mock/mockgen -destination=mocks/mock.go -package=mock_repository . Repository

type UserRepository interface {
	CreateUser(ctx context.Context, req model.CreateUserRequest) (model.User, error)
	UpdateUser(ctx context.Context, id int, req model.CreateUserRequest) (model.User, error)
	DeleteUser(ctx context.Context, id int) error
	GetUser(ctx context.Context, id int) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByStudentID(ctx context.Context, studentID string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListUsersByType(ctx context.Context, userType model.UserType) ([]model.User, error)
	SearchUsers(ctx context.Context, keyword string) ([]model.User, error)
	SetActive(ctx context.Context, id int, active bool) error
	PayAllFines(ctx context.Context, userID int) (float64, error)
}

type BookRepository interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, id int) (model.Book, error)
	ListBooks(ctx context.Context, showAll bool, page, size int) (model.ListBooks, error)
}

type BorrowingRepository interface {
	CreateBorrowing(ctx context.Context, userID, bookID, borrowDays int, fineThreshold float64) (model.Borrowing, error)
	ReturnBorrowing(ctx context.Context, id int, ratePerDay float64) (model.Borrowing, error)
	PayFine(ctx context.Context, id int) (float64, error)
	UpdateStatus(ctx context.Context, id int, status model.BorrowingStatus) error
	DeleteBorrowing(ctx context.Context, id int) error
	GetBorrowing(ctx context.Context, id int) (model.Borrowing, error)
	ListBorrowings(ctx context.Context) ([]model.Borrowing, error)
	ListByUser(ctx context.Context, userID int) ([]model.Borrowing, error)
	ListCurrentByUser(ctx context.Context, userID int) ([]model.Borrowing, error)
	ListByStatus(ctx context.Context, status model.BorrowingStatus) ([]model.Borrowing, error)
	ListOverdue(ctx context.Context) ([]model.Borrowing, error)
	CountCurrentByUser(ctx context.Context, userID int) (int, error)
}

type EventRepository interface {
	SaveEvent(ctx context.Context, event kafka.BorrowingEvent) error
	GetStats(ctx context.Context) (model.StatsInfo, error)
}

type Repository interface {
	UserRepository
	BookRepository
	BorrowingRepository
	EventRepository
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	usersTableName      = `users`
	booksTableName      = `books`
	borrowingsTableName = `borrowings`
	eventsTableName     = `events`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
