package model

import (
	"time"
)

type UserType string

const (
	UserTypeStudent UserType = "STUDENT"
	UserTypeFaculty UserType = "FACULTY"
	UserTypeStaff   UserType = "STAFF"
)

// borrowLimits maps a user type to the maximum number of concurrent
// borrowings (ACTIVE or OVERDUE) that type is allowed.
var borrowLimits = map[UserType]int{
	UserTypeStudent: 3,
	UserTypeStaff:   5,
	UserTypeFaculty: 10,
}

func (t UserType) Valid() bool {
	_, ok := borrowLimits[t]
	return ok
}

func (t UserType) BorrowLimit() int {
	return borrowLimits[t]
}

type User struct {
	ID               int       `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Email            string    `json:"email" db:"email"`
	StudentID        string    `json:"studentId" db:"student_id"`
	UserType         UserType  `json:"userType" db:"user_type"`
	Active           bool      `json:"active" db:"active"`
	TotalFinePending float64   `json:"totalFinePending" db:"total_fine_pending"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

type CreateUserRequest struct {
	Name      string   `json:"name" validate:"required"`
	Email     string   `json:"email" validate:"required,email"`
	StudentID string   `json:"studentId" validate:"required"`
	UserType  UserType `json:"userType" validate:"required,oneof=STUDENT FACULTY STAFF"`
}

type UserStats struct {
	UserID           int         `json:"userId"`
	BorrowedCount    int         `json:"borrowedCount"`
	TotalFinePending float64     `json:"totalFinePending"`
	OverdueCount     int         `json:"overdueCount"`
	OverdueItems     []Borrowing `json:"overdueItems"`
}

type Book struct {
	ID             int    `json:"id" db:"id"`
	BookUid        string `json:"bookUid" db:"book_uid"`
	Name           string `json:"name" db:"name"`
	Author         string `json:"author" db:"author"`
	Genre          string `json:"genre" db:"genre"`
	AvailableCount int    `json:"availableCount" db:"available_count"`
	TotalCount     int    `json:"totalCount" db:"total_count"`
}

type CreateBookRequest struct {
	Name       string `json:"name" validate:"required"`
	Author     string `json:"author" validate:"required"`
	Genre      string `json:"genre"`
	TotalCount int    `json:"totalCount" validate:"required,gt=0"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type BorrowingStatus string

const (
	StatusActive   BorrowingStatus = "ACTIVE"
	StatusOverdue  BorrowingStatus = "OVERDUE"
	StatusReturned BorrowingStatus = "RETURNED"
)

func (s BorrowingStatus) Valid() bool {
	switch s {
	case StatusActive, StatusOverdue, StatusReturned:
		return true
	}
	return false
}

type Borrowing struct {
	ID           int             `json:"id" db:"id"`
	BorrowingUid string          `json:"borrowingUid" db:"borrowing_uid"`
	UserID       int             `json:"userId" db:"user_id"`
	BookID       int             `json:"bookId" db:"book_id"`
	BorrowDate   time.Time       `json:"borrowDate" db:"borrow_date"`
	DueDate      time.Time       `json:"dueDate" db:"due_date"`
	ReturnDate   *time.Time      `json:"returnDate" db:"return_date"`
	Status       BorrowingStatus `json:"status" db:"status"`
	FineAmount   float64         `json:"fineAmount" db:"fine_amount"`
	FinePaid     bool            `json:"finePaid" db:"fine_paid"`
}

type BorrowBookRequest struct {
	UserID     int `json:"userId" validate:"required,gt=0"`
	BookID     int `json:"bookId" validate:"required,gt=0"`
	BorrowDays int `json:"borrowDays" validate:"required,gt=0"`
}

type UpdateStatusRequest struct {
	Status BorrowingStatus `json:"status" validate:"required,oneof=ACTIVE OVERDUE RETURNED"`
}

type PayFineResponse struct {
	BorrowingID int     `json:"borrowingId"`
	AmountPaid  float64 `json:"amountPaid"`
}

type PayAllFinesResponse struct {
	UserID     int     `json:"userId"`
	AmountPaid float64 `json:"amountPaid"`
}

type Stats struct {
	UserID      int       `json:"userId" db:"user_id"`
	LastUpdated time.Time `json:"lastUpdated" db:"last_updated"`
	CntBorrowed int       `json:"cntBorrowed" db:"cnt_borrowed"`
	CntReturned int       `json:"cntReturned" db:"cnt_returned"`
	FinesPaid   float64   `json:"finesPaid" db:"fines_paid"`
}

type StatsInfo struct {
	Data []Stats `json:"data"`
}
