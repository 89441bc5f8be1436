package model

import (
	"math"
	"time"
)

// OverdueDays is the number of whole days ref is past due.
// Both dates are compared at calendar-day granularity.
func OverdueDays(due, ref time.Time) int {
	days := int(atMidnight(ref).Sub(atMidnight(due)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Fine is the linear per-day fine, no cap, no grace period, rounded to cents.
func Fine(due, ref time.Time, ratePerDay float64) float64 {
	return math.Round(float64(OverdueDays(due, ref))*ratePerDay*100) / 100
}

// AccruedFine computes the fine the borrowing has accrued so far,
// against the return date when set, else now.
func (b Borrowing) AccruedFine(ratePerDay float64, now time.Time) float64 {
	ref := now
	if b.ReturnDate != nil {
		ref = *b.ReturnDate
	}
	return Fine(b.DueDate, ref, ratePerDay)
}

// CanBorrow is the eligibility rule shared by the borrow transaction
// and the can-borrow query.
func CanBorrow(u User, currentCount int, fineThreshold float64) bool {
	return u.Active &&
		currentCount < u.UserType.BorrowLimit() &&
		u.TotalFinePending < fineThreshold
}

func atMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
