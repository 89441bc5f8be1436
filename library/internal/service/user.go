package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/edulib/library-service/library/internal/errs"
	"github.com/edulib/library-service/library/internal/model"
)

func (s *Service) CreateUser(ctx context.Context, req model.CreateUserRequest) (model.User, error) {
	if !req.UserType.Valid() {
		return model.User{}, errs.ErrValidation
	}
	return s.repo.CreateUser(ctx, req)
}

func (s *Service) UpdateUser(ctx context.Context, id int, req model.CreateUserRequest) (model.User, error) {
	if !req.UserType.Valid() {
		return model.User{}, errs.ErrValidation
	}
	return s.repo.UpdateUser(ctx, id, req)
}

func (s *Service) DeleteUser(ctx context.Context, id int) error {
	return s.repo.DeleteUser(ctx, id)
}

func (s *Service) GetUser(ctx context.Context, id int) (model.User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.repo.GetUserByEmail(ctx, email)
}

func (s *Service) GetUserByStudentID(ctx context.Context, studentID string) (model.User, error) {
	return s.repo.GetUserByStudentID(ctx, studentID)
}

func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) GetUsersByType(ctx context.Context, userType model.UserType) ([]model.User, error) {
	if !userType.Valid() {
		return nil, errs.ErrValidation
	}
	return s.repo.ListUsersByType(ctx, userType)
}

func (s *Service) SearchUsers(ctx context.Context, keyword string) ([]model.User, error) {
	return s.repo.SearchUsers(ctx, keyword)
}

func (s *Service) ActivateUser(ctx context.Context, id int) error {
	return s.repo.SetActive(ctx, id, true)
}

// DeactivateUser only flips the flag: existing borrowings stay open.
func (s *Service) DeactivateUser(ctx context.Context, id int) error {
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) CanBorrowMoreBooks(ctx context.Context, userID int) (bool, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	count, err := s.repo.CountCurrentByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return model.CanBorrow(user, count, s.policy.FineBlockThreshold), nil
}

func (s *Service) GetCurrentBorrowedBooksCount(ctx context.Context, userID int) (int, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return 0, err
	}
	return s.repo.CountCurrentByUser(ctx, userID)
}

func (s *Service) GetUserStats(ctx context.Context, userID int) (model.UserStats, error) {
	var (
		user    model.User
		current []model.Borrowing
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.repo.GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		current, err = s.repo.ListCurrentByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.UserStats{}, err
	}
	overdue := make([]model.Borrowing, 0)
	for _, b := range current {
		if b.Status == model.StatusOverdue {
			overdue = append(overdue, b)
		}
	}
	return model.UserStats{
		UserID:           user.ID,
		BorrowedCount:    len(current),
		TotalFinePending: user.TotalFinePending,
		OverdueCount:     len(overdue),
		OverdueItems:     overdue,
	}, nil
}

func (s *Service) PayAllFines(ctx context.Context, userID int) (model.PayAllFinesResponse, error) {
	amount, err := s.repo.PayAllFines(ctx, userID)
	if err != nil {
		return model.PayAllFinesResponse{}, err
	}
	return model.PayAllFinesResponse{UserID: userID, AmountPaid: amount}, nil
}
