package service

import (
	"context"
	"time"

	"github.com/edulib/library-service/library/internal/errs"
	"github.com/edulib/library-service/library/internal/model"
)

func (s *Service) BorrowBook(ctx context.Context, req model.BorrowBookRequest) (model.Borrowing, error) {
	if req.BorrowDays <= 0 {
		return model.Borrowing{}, errs.ErrValidation
	}
	return s.repo.CreateBorrowing(ctx, req.UserID, req.BookID, req.BorrowDays, s.policy.FineBlockThreshold)
}

func (s *Service) ReturnBook(ctx context.Context, id int) (model.Borrowing, error) {
	return s.repo.ReturnBorrowing(ctx, id, s.policy.FineRatePerDay)
}

// CalculateFine is a pure read: it reports the fine accrued so far
// without touching any state.
func (s *Service) CalculateFine(ctx context.Context, id int) (float64, error) {
	b, err := s.repo.GetBorrowing(ctx, id)
	if err != nil {
		return 0, err
	}
	return b.AccruedFine(s.policy.FineRatePerDay, time.Now().UTC()), nil
}

func (s *Service) PayFine(ctx context.Context, id int) (model.PayFineResponse, error) {
	amount, err := s.repo.PayFine(ctx, id)
	if err != nil {
		return model.PayFineResponse{}, err
	}
	return model.PayFineResponse{BorrowingID: id, AmountPaid: amount}, nil
}

func (s *Service) UpdateBorrowingStatus(ctx context.Context, id int, status model.BorrowingStatus) error {
	if !status.Valid() {
		return errs.ErrValidation
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) DeleteBorrowing(ctx context.Context, id int) error {
	return s.repo.DeleteBorrowing(ctx, id)
}

func (s *Service) GetBorrowing(ctx context.Context, id int) (model.Borrowing, error) {
	return s.repo.GetBorrowing(ctx, id)
}

func (s *Service) GetBorrowings(ctx context.Context) ([]model.Borrowing, error) {
	return s.repo.ListBorrowings(ctx)
}

func (s *Service) GetBorrowingsByUser(ctx context.Context, userID int) ([]model.Borrowing, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) GetCurrentBorrowingsByUser(ctx context.Context, userID int) ([]model.Borrowing, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListCurrentByUser(ctx, userID)
}

func (s *Service) GetBorrowingsByStatus(ctx context.Context, status model.BorrowingStatus) ([]model.Borrowing, error) {
	if !status.Valid() {
		return nil, errs.ErrValidation
	}
	return s.repo.ListByStatus(ctx, status)
}

func (s *Service) GetOverdueBooks(ctx context.Context) ([]model.Borrowing, error) {
	return s.repo.ListOverdue(ctx)
}
