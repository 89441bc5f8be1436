package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulib/library-service/library/internal/errs"
	"github.com/edulib/library-service/library/internal/handler"
	"github.com/edulib/library-service/library/internal/model"
	"github.com/edulib/library-service/pkg/validate"

	service_mocks "github.com/edulib/library-service/library/internal/handler/mocks"
)

func newTestHandler(borrowingSvc handler.BorrowingService, userSvc handler.UserService, bookSvc handler.BookService) *echo.Echo {
	log := zap.NewExample().Named("test")
	h := handler.New(borrowingSvc, userSvc, bookSvc, nil, "", log)
	e := h.NewRouter()
	e.Validator = validate.NewCustomValidator()
	return e
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHandler_BorrowBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBorrowingService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			body: `{"userId":7,"bookId":3,"borrowDays":14}`,
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					BorrowBook(context.Background(), model.BorrowBookRequest{UserID: 7, BookID: 3, BorrowDays: 14}).
					Return(model.Borrowing{
						ID:           1,
						BorrowingUid: "9f3a2d1c-6d0e-4f1b-8a6e-0c9b1d2e3f4a",
						UserID:       7,
						BookID:       3,
						BorrowDate:   date(2024, time.January, 10),
						DueDate:      date(2024, time.January, 24),
						Status:       model.StatusActive,
					}, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"id":1,"borrowingUid":"9f3a2d1c-6d0e-4f1b-8a6e-0c9b1d2e3f4a","userId":7,"bookId":3,"borrowDate":"2024-01-10T00:00:00Z","dueDate":"2024-01-24T00:00:00Z","returnDate":null,"status":"ACTIVE","fineAmount":0,"finePaid":false}`,
			},
			wantErr: false,
		},
		{
			name: "err. limit exceeded",
			body: `{"userId":7,"bookId":3,"borrowDays":14}`,
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					BorrowBook(context.Background(), model.BorrowBookRequest{UserID: 7, BookID: 3, BorrowDays: 14}).
					Return(model.Borrowing{}, errs.ErrLimitExceeded)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"borrowing limit exceeded"}`,
			},
			wantErr: true,
		},
		{
			name: "err. user not found",
			body: `{"userId":77,"bookId":3,"borrowDays":14}`,
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					BorrowBook(context.Background(), model.BorrowBookRequest{UserID: 77, BookID: 3, BorrowDays: 14}).
					Return(model.Borrowing{}, errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
			wantErr: true,
		},
		{
			name:         "err. missing bookId",
			body:         `{"userId":7,"borrowDays":14}`,
			mockBehavior: func(r *service_mocks.MockBorrowingService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"code=400, message=Key: 'BorrowBookRequest.BookID' Error:Field validation for 'BookID' failed on the 'required' tag"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			borrowingSvc := service_mocks.NewMockBorrowingService(c)
			tt.mockBehavior(borrowingSvc)
			e := newTestHandler(borrowingSvc, service_mocks.NewMockUserService(c), service_mocks.NewMockBookService(c))

			r := httptest.NewRequest(http.MethodPost, "/api/v1/borrowings/borrow", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ReturnBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBorrowingService)

	returned := date(2024, time.January, 29)

	var tests = []struct {
		name         string
		id           string
		mockBehavior mockBehavior
		response     response
		wantErr      bool
	}{
		{
			name: "ok. returned late with fine",
			id:   "1",
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					ReturnBook(context.Background(), 1).
					Return(model.Borrowing{
						ID:           1,
						BorrowingUid: "9f3a2d1c-6d0e-4f1b-8a6e-0c9b1d2e3f4a",
						UserID:       7,
						BookID:       3,
						BorrowDate:   date(2024, time.January, 10),
						DueDate:      date(2024, time.January, 24),
						ReturnDate:   &returned,
						Status:       model.StatusReturned,
						FineAmount:   2.5,
					}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":1,"borrowingUid":"9f3a2d1c-6d0e-4f1b-8a6e-0c9b1d2e3f4a","userId":7,"bookId":3,"borrowDate":"2024-01-10T00:00:00Z","dueDate":"2024-01-24T00:00:00Z","returnDate":"2024-01-29T00:00:00Z","status":"RETURNED","fineAmount":2.5,"finePaid":false}`,
			},
			wantErr: false,
		},
		{
			name: "err. already returned",
			id:   "1",
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					ReturnBook(context.Background(), 1).
					Return(model.Borrowing{}, errs.ErrInvalidState)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"invalid lifecycle state"}`,
			},
			wantErr: true,
		},
		{
			name: "err. not found",
			id:   "42",
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					ReturnBook(context.Background(), 42).
					Return(model.Borrowing{}, errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
			wantErr: true,
		},
		{
			name:         "err. bad id",
			id:           "abc",
			mockBehavior: func(r *service_mocks.MockBorrowingService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"id is invalid"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			borrowingSvc := service_mocks.NewMockBorrowingService(c)
			tt.mockBehavior(borrowingSvc)
			e := newTestHandler(borrowingSvc, service_mocks.NewMockUserService(c), service_mocks.NewMockBookService(c))

			r := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/borrowings/%s/return", tt.id), http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_CalculateFine(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBorrowingService)

	var tests = []struct {
		name         string
		id           string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			id:   "1",
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().CalculateFine(context.Background(), 1).Return(2.5, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `2.5`,
			},
		},
		{
			name: "ok. nothing accrued",
			id:   "2",
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().CalculateFine(context.Background(), 2).Return(0.0, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `0`,
			},
		},
		{
			name: "err. internal",
			id:   "1",
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().CalculateFine(context.Background(), 1).Return(0.0, errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			borrowingSvc := service_mocks.NewMockBorrowingService(c)
			tt.mockBehavior(borrowingSvc)
			e := newTestHandler(borrowingSvc, service_mocks.NewMockUserService(c), service_mocks.NewMockBookService(c))

			r := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/borrowings/%s/fine", tt.id), http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_PayFine(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBorrowingService)

	var tests = []struct {
		name         string
		id           string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			id:   "1",
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					PayFine(context.Background(), 1).
					Return(model.PayFineResponse{BorrowingID: 1, AmountPaid: 2.5}, nil)
				r.EXPECT().
					GetBorrowing(context.Background(), 1).
					Return(model.Borrowing{
						ID:           1,
						BorrowingUid: "9f3a2d1c-6d0e-4f1b-8a6e-0c9b1d2e3f4a",
						UserID:       7,
						BookID:       3,
						Status:       model.StatusReturned,
					}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"borrowingId":1,"amountPaid":2.5}`,
			},
		},
		{
			name: "ok. payment sticks when the audit lookup fails",
			id:   "1",
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					PayFine(context.Background(), 1).
					Return(model.PayFineResponse{BorrowingID: 1, AmountPaid: 2.5}, nil)
				r.EXPECT().
					GetBorrowing(context.Background(), 1).
					Return(model.Borrowing{}, errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"borrowingId":1,"amountPaid":2.5}`,
			},
		},
		{
			name: "err. not found",
			id:   "42",
			mockBehavior: func(r *service_mocks.MockBorrowingService) {
				r.EXPECT().
					PayFine(context.Background(), 42).
					Return(model.PayFineResponse{}, errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			borrowingSvc := service_mocks.NewMockBorrowingService(c)
			tt.mockBehavior(borrowingSvc)
			e := newTestHandler(borrowingSvc, service_mocks.NewMockUserService(c), service_mocks.NewMockBookService(c))

			r := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/borrowings/%s/pay-fine", tt.id), http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_CanBorrowMoreBooks(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockUserService)

	var tests = []struct {
		name         string
		id           string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok. can borrow",
			id:   "7",
			mockBehavior: func(r *service_mocks.MockUserService) {
				r.EXPECT().CanBorrowMoreBooks(context.Background(), 7).Return(true, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `true`,
			},
		},
		{
			name: "ok. blocked",
			id:   "7",
			mockBehavior: func(r *service_mocks.MockUserService) {
				r.EXPECT().CanBorrowMoreBooks(context.Background(), 7).Return(false, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `false`,
			},
		},
		{
			name: "err. not found",
			id:   "42",
			mockBehavior: func(r *service_mocks.MockUserService) {
				r.EXPECT().CanBorrowMoreBooks(context.Background(), 42).Return(false, errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			userSvc := service_mocks.NewMockUserService(c)
			tt.mockBehavior(userSvc)
			e := newTestHandler(service_mocks.NewMockBorrowingService(c), userSvc, service_mocks.NewMockBookService(c))

			r := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/users/%s/can-borrow", tt.id), http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_CreateUser(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockUserService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"name":"Ada Lovelace","email":"ada@example.edu","studentId":"S-1001","userType":"STUDENT"}`,
			mockBehavior: func(r *service_mocks.MockUserService) {
				r.EXPECT().
					CreateUser(context.Background(), model.CreateUserRequest{
						Name:      "Ada Lovelace",
						Email:     "ada@example.edu",
						StudentID: "S-1001",
						UserType:  model.UserTypeStudent,
					}).
					Return(model.User{
						ID:        7,
						Name:      "Ada Lovelace",
						Email:     "ada@example.edu",
						StudentID: "S-1001",
						UserType:  model.UserTypeStudent,
						Active:    true,
						CreatedAt: date(2024, time.January, 10),
					}, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"id":7,"name":"Ada Lovelace","email":"ada@example.edu","studentId":"S-1001","userType":"STUDENT","active":true,"totalFinePending":0,"createdAt":"2024-01-10T00:00:00Z"}`,
			},
		},
		{
			name: "err. duplicate email",
			body: `{"name":"Ada Lovelace","email":"ada@example.edu","studentId":"S-1001","userType":"STUDENT"}`,
			mockBehavior: func(r *service_mocks.MockUserService) {
				r.EXPECT().
					CreateUser(context.Background(), gomock.Any()).
					Return(model.User{}, errs.ErrConflict)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"already exists"}`,
			},
		},
		{
			name:         "err. bad user type",
			body:         `{"name":"Ada Lovelace","email":"ada@example.edu","studentId":"S-1001","userType":"ALUMNI"}`,
			mockBehavior: func(r *service_mocks.MockUserService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"code=400, message=Key: 'CreateUserRequest.UserType' Error:Field validation for 'UserType' failed on the 'oneof' tag"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			userSvc := service_mocks.NewMockUserService(c)
			tt.mockBehavior(userSvc)
			e := newTestHandler(service_mocks.NewMockBorrowingService(c), userSvc, service_mocks.NewMockBookService(c))

			r := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}
