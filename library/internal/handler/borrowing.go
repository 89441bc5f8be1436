package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/edulib/library-service/library/internal/model"
	"github.com/edulib/library-service/pkg/kafka"
)

func (h *Handler) BorrowBook(c echo.Context) error {
	var req model.BorrowBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	b, err := h.borrowingSvc.BorrowBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	h.publishEvent(kafka.BorrowingEvent{
		Timestamp:    time.Now().UTC(),
		BorrowingUid: b.BorrowingUid,
		UserID:       b.UserID,
		BookID:       b.BookID,
		EventType:    kafka.EventBorrowed,
	})
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) ReturnBook(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.borrowingSvc.ReturnBook(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	h.publishEvent(kafka.BorrowingEvent{
		Timestamp:    time.Now().UTC(),
		BorrowingUid: b.BorrowingUid,
		UserID:       b.UserID,
		BookID:       b.BookID,
		EventType:    kafka.EventReturned,
		Amount:       b.FineAmount,
	})
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) CalculateFine(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	fine, err := h.borrowingSvc.CalculateFine(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, fine)
}

func (h *Handler) PayFine(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	resp, err := h.borrowingSvc.PayFine(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	b, err := h.borrowingSvc.GetBorrowing(c.Request().Context(), id)
	if err != nil {
		h.log.Warn("pay fine audit event skipped", zap.Int("id", id), zap.Error(err))
	} else {
		h.publishEvent(kafka.BorrowingEvent{
			Timestamp:    time.Now().UTC(),
			BorrowingUid: b.BorrowingUid,
			UserID:       b.UserID,
			BookID:       b.BookID,
			EventType:    kafka.EventFinePaid,
			Amount:       resp.AmountPaid,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateBorrowingStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req model.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.borrowingSvc.UpdateBorrowingStatus(c.Request().Context(), id, req.Status); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusOK)
}

func (h *Handler) DeleteBorrowing(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.borrowingSvc.DeleteBorrowing(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetBorrowing(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.borrowingSvc.GetBorrowing(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) GetBorrowings(c echo.Context) error {
	items, err := h.borrowingSvc.GetBorrowings(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetBorrowingsByUser(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	items, err := h.borrowingSvc.GetBorrowingsByUser(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetCurrentBorrowingsByUser(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	items, err := h.borrowingSvc.GetCurrentBorrowingsByUser(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetBorrowingsByStatus(c echo.Context) error {
	status := model.BorrowingStatus(c.Param("status"))
	items, err := h.borrowingSvc.GetBorrowingsByStatus(c.Request().Context(), status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetOverdueBooks(c echo.Context) error {
	items, err := h.borrowingSvc.GetOverdueBooks(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) publishEvent(event kafka.BorrowingEvent) {
	if h.enqueuer == nil {
		return
	}
	if err := h.enqueuer.Enqueue(h.topic, event); err != nil {
		h.log.Warn("enqueue event", zap.String("borrowingUid", event.BorrowingUid), zap.Error(err))
	}
}

func pathID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return id, nil
}
