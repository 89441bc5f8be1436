package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/edulib/library-service/library/internal/model"
	"github.com/edulib/library-service/library/internal/repository"
	"github.com/edulib/library-service/pkg/kafka"
)

// Policy holds the borrowing business constants.
type Policy struct {
	FineRatePerDay     float64 `envconfig:"FINE_RATE_PER_DAY" default:"0.50"`
	FineBlockThreshold float64 `envconfig:"FINE_BLOCK_THRESHOLD" default:"100.00"`
}

type Service struct {
	log    *zap.Logger
	repo   repository.Repository
	policy Policy
}

func NewService(repo repository.Repository, policy Policy, log *zap.Logger) *Service {
	return &Service{
		log:    log,
		repo:   repo,
		policy: policy,
	}
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	return s.repo.CreateBook(ctx, req)
}

func (s *Service) GetBook(ctx context.Context, id int) (model.Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) ListBooks(ctx context.Context, showAll bool, page, size int) (model.ListBooks, error) {
	return s.repo.ListBooks(ctx, showAll, page, size)
}

// GetStats aggregates the audit trail per user.
func (s *Service) GetStats(ctx context.Context) (model.StatsInfo, error) {
	return s.repo.GetStats(ctx)
}

// SaveEvent is used by the kafka consumer.
func (s *Service) SaveEvent(ctx context.Context, event kafka.BorrowingEvent) error {
	return s.repo.SaveEvent(ctx, event)
}
