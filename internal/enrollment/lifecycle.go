package enrollment

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/registrar/internal/metrics"
	"github.com/shrimpsizemoose/registrar/internal/models"
	"github.com/shrimpsizemoose/registrar/internal/store"
)

const csvDateFormat = "2006-01-02T15:04:05"

// Lifecycle drives enrollments through NONE -> ACTIVE -> COMPLETED, with
// ACTIVE -> NONE on drop. Every mutation runs in one store transaction.
type Lifecycle struct {
	store  store.Store
	ledger Ledger
	now    func() time.Time
}

func NewLifecycle(s store.Store) *Lifecycle {
	return &Lifecycle{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ResolveStudentID prefers the explicit id, otherwise maps the authenticated
// username onto a student number.
func (l *Lifecycle) ResolveStudentID(ctx context.Context, explicit *int64, username string) (int64, error) {
	if explicit != nil && *explicit > 0 {
		return *explicit, nil
	}
	if username == "" {
		return 0, models.ErrStudentUnresolved
	}

	student, err := l.store.GetStudentByNo(ctx, username)
	if err != nil {
		return 0, err
	}
	if student == nil {
		return 0, models.ErrStudentUnresolved
	}
	return student.ID, nil
}

func (l *Lifecycle) Enroll(ctx context.Context, studentID, courseID int64) (*models.EnrollmentView, error) {
	if studentID <= 0 || courseID <= 0 {
		return nil, invalidIDs("studentId and courseId are required")
	}

	var view *models.EnrollmentView
	err := l.store.InTx(ctx, func(q store.Queries) error {
		exists, err := q.StudentExists(ctx, studentID)
		if err != nil {
			return err
		}
		if !exists {
			return models.ErrStudentNotFound
		}

		course, err := q.GetCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if course == nil {
			return models.ErrCourseNotFound
		}
		if !course.IsOpen() {
			return models.ErrCourseClosed
		}

		existing, err := q.FindEnrollment(ctx, studentID, courseID)
		if err != nil {
			return err
		}
		if existing != nil && existing.IsActive() {
			return models.ErrDuplicateEnrollment
		}

		if err := l.ledger.TryReserveSeat(ctx, q, courseID); err != nil {
			return err
		}

		enrollment := &models.Enrollment{
			StudentID:  studentID,
			CourseID:   courseID,
			Status:     models.EnrollmentStatusActive,
			EnrollDate: l.now(),
		}
		if err := q.CreateEnrollment(ctx, enrollment); err != nil {
			return err
		}

		view, err = q.GetEnrollmentView(ctx, enrollment.ID)
		return err
	})
	l.observe("enroll", err)
	if err != nil {
		logger.Debug.Printf("Enroll student=%d course=%d rejected: %v", studentID, courseID, err)
		return nil, err
	}

	metrics.CourseSeatsEnrolled.WithLabelValues(view.CourseCode).Set(float64(view.Enrolled))
	logger.Info.Printf("Student %d enrolled in course %d (%d/%d)", studentID, courseID, view.Enrolled, view.Capacity)
	return view, nil
}

// Drop removes the active enrollment of the pair and gives the seat back.
func (l *Lifecycle) Drop(ctx context.Context, studentID, courseID int64) error {
	if studentID <= 0 || courseID <= 0 {
		return invalidIDs("studentId and courseId are required")
	}

	err := l.store.InTx(ctx, func(q store.Queries) error {
		enrollment, err := q.FindEnrollment(ctx, studentID, courseID)
		if err != nil {
			return err
		}
		if enrollment == nil {
			return models.ErrEnrollmentNotFound
		}
		return l.drop(ctx, q, enrollment)
	})
	l.observe("drop", err)
	if err != nil {
		return err
	}

	logger.Info.Printf("Student %d dropped course %d", studentID, courseID)
	return nil
}

// DropByID drops by enrollment id. A non-nil requester must own the enrollment.
func (l *Lifecycle) DropByID(ctx context.Context, enrollmentID int64, requesterID *int64) error {
	if enrollmentID <= 0 {
		return invalidIDs("enrollmentId is required")
	}

	err := l.store.InTx(ctx, func(q store.Queries) error {
		enrollment, err := q.GetEnrollment(ctx, enrollmentID)
		if err != nil {
			return err
		}
		if enrollment == nil {
			return models.ErrEnrollmentNotFound
		}
		if requesterID != nil && *requesterID != enrollment.StudentID {
			return models.ErrForbidden
		}
		return l.drop(ctx, q, enrollment)
	})
	l.observe("drop", err)
	if err != nil {
		return err
	}

	logger.Info.Printf("Enrollment %d dropped", enrollmentID)
	return nil
}

func (l *Lifecycle) drop(ctx context.Context, q store.Queries, enrollment *models.Enrollment) error {
	if !enrollment.IsActive() {
		return models.ErrNotActive
	}
	if err := q.DeleteEnrollment(ctx, enrollment.ID); err != nil {
		return err
	}
	return l.ledger.ReleaseSeat(ctx, q, enrollment.CourseID)
}

// Grade sets the grade on the pair's enrollment, whatever its status.
func (l *Lifecycle) Grade(ctx context.Context, studentID, courseID int64, grade string) error {
	if studentID <= 0 || courseID <= 0 {
		return invalidIDs("studentId and courseId are required")
	}
	if n := utf8.RuneCountInString(grade); n < 1 || n > 2 {
		return models.NewError(models.KindInvalidArgument, "grade must be 1 or 2 characters")
	}

	err := l.store.InTx(ctx, func(q store.Queries) error {
		enrollment, err := q.FindEnrollment(ctx, studentID, courseID)
		if err != nil {
			return err
		}
		if enrollment == nil {
			return models.ErrEnrollmentNotFound
		}
		enrollment.Grade = &grade
		return q.UpdateEnrollment(ctx, enrollment)
	})
	l.observe("grade", err)
	if err != nil {
		return err
	}

	logger.Info.Printf("Student %d graded %q in course %d", studentID, grade, courseID)
	return nil
}

// Complete marks the enrollment completed. The seat stays counted in enrolled.
func (l *Lifecycle) Complete(ctx context.Context, studentID, courseID int64) error {
	if studentID <= 0 || courseID <= 0 {
		return invalidIDs("studentId and courseId are required")
	}

	err := l.store.InTx(ctx, func(q store.Queries) error {
		enrollment, err := q.FindEnrollment(ctx, studentID, courseID)
		if err != nil {
			return err
		}
		if enrollment == nil {
			return models.ErrEnrollmentNotFound
		}
		enrollment.Status = models.EnrollmentStatusCompleted
		return q.UpdateEnrollment(ctx, enrollment)
	})
	l.observe("complete", err)
	if err != nil {
		return err
	}

	logger.Info.Printf("Student %d completed course %d", studentID, courseID)
	return nil
}

// PurgeStudent deletes every enrollment of a student and releases one seat per row.
// It is meant to run inside the transaction that deletes the student.
func (l *Lifecycle) PurgeStudent(ctx context.Context, q store.Queries, studentID int64) error {
	enrollments, err := q.ListEnrollmentsByStudent(ctx, studentID)
	if err != nil {
		return err
	}
	for _, e := range enrollments {
		if err := q.DeleteEnrollment(ctx, e.ID); err != nil {
			return err
		}
		if err := l.ledger.ReleaseSeat(ctx, q, e.CourseID); err != nil {
			return err
		}
	}
	if len(enrollments) > 0 {
		logger.Info.Printf("Released %d seats held by student %d", len(enrollments), studentID)
	}
	return nil
}

func (l *Lifecycle) ListActive(ctx context.Context, studentID int64) ([]models.EnrollmentView, error) {
	return l.store.ListEnrollmentViews(ctx, studentID, models.EnrollmentStatusActive)
}

// ListEnrolled pages the student's enrollments with the given status (active when empty).
func (l *Lifecycle) ListEnrolled(ctx context.Context, studentID int64, status string, page models.PageRequest) (models.Page[models.EnrollmentView], error) {
	if status == "" {
		status = models.EnrollmentStatusActive
	}
	views, err := l.store.ListEnrollmentViews(ctx, studentID, status)
	if err != nil {
		return models.Page[models.EnrollmentView]{}, err
	}
	return models.Paginate(views, page), nil
}

func (l *Lifecycle) ListAvailable(ctx context.Context, studentID int64, page models.PageRequest) (models.Page[models.EnrollmentView], error) {
	views, err := l.store.ListAvailableCourses(ctx, studentID)
	if err != nil {
		return models.Page[models.EnrollmentView]{}, err
	}
	return models.Paginate(views, page), nil
}

// ListHistory covers every row still present: active and completed. Drops are gone.
func (l *Lifecycle) ListHistory(ctx context.Context, studentID int64, page models.PageRequest) (models.Page[models.EnrollmentView], error) {
	views, err := l.store.ListEnrollmentViews(ctx, studentID, "")
	if err != nil {
		return models.Page[models.EnrollmentView]{}, err
	}
	return models.Paginate(views, page), nil
}

func (l *Lifecycle) Detail(ctx context.Context, studentID, courseID int64) (*models.EnrollmentView, error) {
	enrollment, err := l.store.FindEnrollment(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, models.ErrEnrollmentNotFound
	}

	view, err := l.store.GetEnrollmentView(ctx, enrollment.ID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, models.ErrEnrollmentNotFound
	}
	return view, nil
}

func (l *Lifecycle) Roster(ctx context.Context, courseID int64) (*models.Course, []models.RosterEntry, error) {
	course, err := l.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}
	if course == nil {
		return nil, nil, models.ErrCourseNotFound
	}

	roster, err := l.store.ListRoster(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}
	return course, roster, nil
}

// ExportCSV renders the student's active enrollments.
func (l *Lifecycle) ExportCSV(ctx context.Context, studentID int64) (string, error) {
	views, err := l.ListActive(ctx, studentID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "courseId", "courseName", "status", "enrollDate"}); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, v := range views {
		enrollDate := ""
		if v.EnrollDate != nil {
			enrollDate = v.EnrollDate.Format(csvDateFormat)
		}
		record := []string{
			strconv.FormatInt(v.ID, 10),
			strconv.FormatInt(v.CourseID, 10),
			v.CourseName,
			v.Status,
			enrollDate,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.String(), nil
}

func (l *Lifecycle) observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = models.KindOf(err).String()
	}
	metrics.EnrollmentOpsTotal.WithLabelValues(op, outcome).Inc()
}

func invalidIDs(msg string) error {
	return fmt.Errorf("%s: %w", msg, models.ErrInvalidArgument)
}
