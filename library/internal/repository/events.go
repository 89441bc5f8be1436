package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/edulib/library-service/library/internal/model"
	"github.com/edulib/library-service/pkg/kafka"
)

func (r *repository) SaveEvent(ctx context.Context, event kafka.BorrowingEvent) error {
	const q = `
	insert into events (timestamp, borrowing_uid, user_id, book_id, event_type, amount)
	values (:timestamp, :borrowing_uid, :user_id, :book_id, :event_type, :amount)`
	args := map[string]interface{}{
		"timestamp":     event.Timestamp,
		"borrowing_uid": event.BorrowingUid,
		"user_id":       event.UserID,
		"book_id":       event.BookID,
		"event_type":    event.EventType,
		"amount":        event.Amount,
	}
	if _, err := r.db.NamedExecContext(ctx, q, args); err != nil {
		r.log.Error("SaveEvent", zap.Any("event", event), zap.Error(err))
		return err
	}
	return nil
}

func (r *repository) GetStats(ctx context.Context) (model.StatsInfo, error) {
	const q = `
	select user_id, max(timestamp) as last_updated,
	       coalesce(count(*) filter (where event_type = 'BORROWED'), 0) as cnt_borrowed,
	       coalesce(count(*) filter (where event_type = 'RETURNED'), 0) as cnt_returned,
	       coalesce(sum(amount) filter (where event_type = 'FINE_PAID'), 0) as fines_paid
	from events
	group by user_id
	order by user_id`
	stats := make([]model.Stats, 0)
	if err := r.db.SelectContext(ctx, &stats, q); err != nil {
		return model.StatsInfo{}, err
	}
	return model.StatsInfo{Data: stats}, nil
}
