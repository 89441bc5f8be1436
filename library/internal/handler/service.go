package handler

import (
	"context"

	"github.com/edulib/library-service/library/internal/model"
	"github.com/edulib/library-service/library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BorrowingService interface {
	BorrowBook(ctx context.Context, req model.BorrowBookRequest) (model.Borrowing, error)
	ReturnBook(ctx context.Context, id int) (model.Borrowing, error)
	CalculateFine(ctx context.Context, id int) (float64, error)
	PayFine(ctx context.Context, id int) (model.PayFineResponse, error)
	UpdateBorrowingStatus(ctx context.Context, id int, status model.BorrowingStatus) error
	DeleteBorrowing(ctx context.Context, id int) error
	GetBorrowing(ctx context.Context, id int) (model.Borrowing, error)
	GetBorrowings(ctx context.Context) ([]model.Borrowing, error)
	GetBorrowingsByUser(ctx context.Context, userID int) ([]model.Borrowing, error)
	GetCurrentBorrowingsByUser(ctx context.Context, userID int) ([]model.Borrowing, error)
	GetBorrowingsByStatus(ctx context.Context, status model.BorrowingStatus) ([]model.Borrowing, error)
	GetOverdueBooks(ctx context.Context) ([]model.Borrowing, error)
}

type UserService interface {
	CreateUser(ctx context.Context, req model.CreateUserRequest) (model.User, error)
	UpdateUser(ctx context.Context, id int, req model.CreateUserRequest) (model.User, error)
	DeleteUser(ctx context.Context, id int) error
	GetUser(ctx context.Context, id int) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByStudentID(ctx context.Context, studentID string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUsersByType(ctx context.Context, userType model.UserType) ([]model.User, error)
	SearchUsers(ctx context.Context, keyword string) ([]model.User, error)
	ActivateUser(ctx context.Context, id int) error
	DeactivateUser(ctx context.Context, id int) error
	CanBorrowMoreBooks(ctx context.Context, userID int) (bool, error)
	GetCurrentBorrowedBooksCount(ctx context.Context, userID int) (int, error)
	GetUserStats(ctx context.Context, userID int) (model.UserStats, error)
	PayAllFines(ctx context.Context, userID int) (model.PayAllFinesResponse, error)
}

type BookService interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, id int) (model.Book, error)
	ListBooks(ctx context.Context, showAll bool, page, size int) (model.ListBooks, error)
	GetStats(ctx context.Context) (model.StatsInfo, error)
}

var (
	_ BorrowingService = (*service.Service)(nil)
	_ UserService      = (*service.Service)(nil)
	_ BookService      = (*service.Service)(nil)
)
