package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/edulib/library-service/library/internal/errs"
	md "github.com/edulib/library-service/pkg/middleware"
	"github.com/edulib/library-service/pkg/validate"
)

type Handler struct {
	borrowingSvc BorrowingService
	userSvc      UserService
	bookSvc      BookService
	enqueuer     Enqueuer
	topic        string
	log          *zap.Logger
}

func New(borrowingSvc BorrowingService, userSvc UserService, bookSvc BookService, enqueuer Enqueuer, topic string, log *zap.Logger) *Handler {
	return &Handler{
		borrowingSvc: borrowingSvc,
		userSvc:      userSvc,
		bookSvc:      bookSvc,
		enqueuer:     enqueuer,
		topic:        topic,
		log:          log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/users", h.CreateUser)
	api.GET("/users", h.GetUsers)
	api.GET("/users/search", h.SearchUsers)
	api.GET("/users/email/:email", h.GetUserByEmail)
	api.GET("/users/student/:studentId", h.GetUserByStudentID)
	api.GET("/users/type/:userType", h.GetUsersByType)
	api.GET("/users/:id", h.GetUser)
	api.PUT("/users/:id", h.UpdateUser)
	api.DELETE("/users/:id", h.DeleteUser)
	api.PUT("/users/:id/activate", h.ActivateUser)
	api.PUT("/users/:id/deactivate", h.DeactivateUser)
	api.GET("/users/:id/can-borrow", h.CanBorrowMoreBooks)
	api.GET("/users/:id/borrowed-count", h.GetCurrentBorrowedBooksCount)
	api.GET("/users/:id/stats", h.GetUserStats)
	api.PUT("/users/:id/pay-all-fines", h.PayAllFines)

	api.POST("/borrowings/borrow", h.BorrowBook)
	api.GET("/borrowings", h.GetBorrowings)
	api.GET("/borrowings/overdue", h.GetOverdueBooks)
	api.GET("/borrowings/status/:status", h.GetBorrowingsByStatus)
	api.GET("/borrowings/user/:userId", h.GetBorrowingsByUser)
	api.GET("/borrowings/user/:userId/current", h.GetCurrentBorrowingsByUser)
	api.GET("/borrowings/:id", h.GetBorrowing)
	api.PUT("/borrowings/:id/return", h.ReturnBook)
	api.GET("/borrowings/:id/fine", h.CalculateFine)
	api.PUT("/borrowings/:id/pay-fine", h.PayFine)
	api.PUT("/borrowings/:id/status", h.UpdateBorrowingStatus)
	api.DELETE("/borrowings/:id", h.DeleteBorrowing)

	api.POST("/books", h.CreateBook)
	api.GET("/books", h.GetBooks)
	api.GET("/books/:id", h.GetBook)

	api.GET("/stats", h.GetStats)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps business error kinds onto http statuses: absent
// entities are 404, malformed input is 400, business-rule conflicts
// (quota, availability, lifecycle state, duplicates) are 409.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrConflict),
		errors.Is(err, errs.ErrLimitExceeded),
		errors.Is(err, errs.ErrUnavailable),
		errors.Is(err, errs.ErrInvalidState):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
