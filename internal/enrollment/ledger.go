package enrollment

import (
	"context"

	"github.com/shrimpsizemoose/registrar/internal/models"
	"github.com/shrimpsizemoose/registrar/internal/store"
)

// Ledger is the only writer of courses.enrolled. Both methods run on the
// caller's transaction so the seat change commits together with the enrollment row.
type Ledger struct{}

// TryReserveSeat takes a seat with a single conditional update, so two
// concurrent enrollments cannot both pass the capacity check.
func (Ledger) TryReserveSeat(ctx context.Context, q store.Queries, courseID int64) error {
	ok, err := q.ReserveSeat(ctx, courseID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	course, err := q.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return models.ErrCourseNotFound
	}
	return models.ErrCourseFull
}

// ReleaseSeat gives a seat back, never taking enrolled below zero.
func (Ledger) ReleaseSeat(ctx context.Context, q store.Queries, courseID int64) error {
	ok, err := q.ReleaseSeat(ctx, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrCourseNotFound
	}
	return nil
}
