package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/registrar/internal/models"
)

const enrollmentColumns = `id, student_id, course_id, status, grade, enroll_date, created_at, updated_at`

const enrollmentViewSelect = `
	SELECT
		sc.id,
		sc.student_id,
		sc.course_id,
		c.name AS course_name,
		c.code AS course_code,
		COALESCE(u.username, 'N/A') AS teacher_name,
		c.credits,
		c.capacity,
		c.enrolled,
		c.location,
		sc.status,
		sc.grade,
		sc.enroll_date,
		sc.created_at,
		sc.updated_at
	FROM student_courses sc
	JOIN courses c ON c.id = sc.course_id
	LEFT JOIN users u ON u.id = c.teacher_id`

func (s *BaseStore) GetEnrollment(ctx context.Context, id int64) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	query := s.Converter(`SELECT ` + enrollmentColumns + ` FROM student_courses WHERE id = ?`)

	err := sqlx.GetContext(ctx, s.ext(), &enrollment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment %d: %w", id, err)
	}
	return &enrollment, nil
}

// FindEnrollment returns the row for the pair, preferring the active one when a
// completed row for the same course also exists.
func (s *BaseStore) FindEnrollment(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	query := s.Converter(`
		SELECT ` + enrollmentColumns + `
		FROM student_courses
		WHERE student_id = ? AND course_id = ?
		ORDER BY CASE WHEN status = 'active' THEN 0 ELSE 1 END, id DESC
		LIMIT 1
	`)

	err := sqlx.GetContext(ctx, s.ext(), &enrollment, query, studentID, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find enrollment: %w", err)
	}
	return &enrollment, nil
}

func (s *BaseStore) ListEnrollmentsByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	enrollments := []models.Enrollment{}
	query := s.Converter(`
		SELECT ` + enrollmentColumns + `
		FROM student_courses
		WHERE student_id = ?
		ORDER BY id
	`)

	if err := sqlx.SelectContext(ctx, s.ext(), &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("failed to list enrollments of student %d: %w", studentID, err)
	}
	return enrollments, nil
}

func (s *BaseStore) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	now := time.Now().UTC()
	id, err := s.insertReturningID(ctx, `
		INSERT INTO student_courses (student_id, course_id, status, grade, enroll_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		enrollment.StudentID, enrollment.CourseID, enrollment.Status, enrollment.Grade,
		enrollment.EnrollDate, now, now,
	)
	if s.uniqueViolation(err) {
		return models.ErrDuplicateEnrollment
	}
	if err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	enrollment.ID = id
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	return nil
}

func (s *BaseStore) UpdateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	now := time.Now().UTC()
	_, err := s.exec(ctx, `
		UPDATE student_courses
		SET status = ?, grade = ?, updated_at = ?
		WHERE id = ?
	`, enrollment.Status, enrollment.Grade, now, enrollment.ID)
	if s.uniqueViolation(err) {
		return models.ErrDuplicateEnrollment
	}
	if err != nil {
		return fmt.Errorf("failed to update enrollment %d: %w", enrollment.ID, err)
	}
	enrollment.UpdatedAt = now
	return nil
}

func (s *BaseStore) DeleteEnrollment(ctx context.Context, id int64) error {
	if _, err := s.exec(ctx, `DELETE FROM student_courses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete enrollment %d: %w", id, err)
	}
	return nil
}

func (s *BaseStore) GetEnrollmentView(ctx context.Context, id int64) (*models.EnrollmentView, error) {
	var view models.EnrollmentView
	query := s.Converter(enrollmentViewSelect + ` WHERE sc.id = ?`)

	err := sqlx.GetContext(ctx, s.ext(), &view, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment view %d: %w", id, err)
	}
	return &view, nil
}

// ListEnrollmentViews lists a student's enrollments, newest first. An empty status means all.
func (s *BaseStore) ListEnrollmentViews(ctx context.Context, studentID int64, status string) ([]models.EnrollmentView, error) {
	args := []interface{}{studentID}
	query := enrollmentViewSelect + ` WHERE sc.student_id = ?`
	if status != "" {
		query += ` AND sc.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY sc.enroll_date DESC, sc.id DESC`

	views := []models.EnrollmentView{}
	if err := sqlx.SelectContext(ctx, s.ext(), &views, s.Converter(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list enrollments of student %d: %w", studentID, err)
	}
	return views, nil
}

// ListAvailableCourses returns open courses with a free seat that the student
// holds no active enrollment in. Dropped courses show up again since drops delete rows.
func (s *BaseStore) ListAvailableCourses(ctx context.Context, studentID int64) ([]models.EnrollmentView, error) {
	query := s.Converter(`
		SELECT
			c.id AS id,
			0 AS student_id,
			c.id AS course_id,
			c.name AS course_name,
			c.code AS course_code,
			COALESCE(u.username, 'N/A') AS teacher_name,
			c.credits,
			c.capacity,
			c.enrolled,
			c.location,
			c.status,
			CAST(NULL AS VARCHAR(2)) AS grade,
			CAST(NULL AS TIMESTAMP) AS enroll_date,
			c.created_at,
			c.updated_at
		FROM courses c
		LEFT JOIN users u ON u.id = c.teacher_id
		WHERE c.status = 'open'
		AND c.enrolled < c.capacity
		AND NOT EXISTS (
			SELECT 1 FROM student_courses sc
			WHERE sc.course_id = c.id
			AND sc.student_id = ?
			AND sc.status = 'active'
		)
		ORDER BY c.id
	`)

	views := []models.EnrollmentView{}
	if err := sqlx.SelectContext(ctx, s.ext(), &views, query, studentID); err != nil {
		return nil, fmt.Errorf("failed to list available courses for student %d: %w", studentID, err)
	}
	return views, nil
}

func (s *BaseStore) ListRoster(ctx context.Context, courseID int64) ([]models.RosterEntry, error) {
	query := s.Converter(`
		SELECT
			sc.id AS enrollment_id,
			st.id AS student_id,
			st.student_no,
			st.name AS student_name,
			sc.status,
			sc.grade,
			sc.enroll_date
		FROM student_courses sc
		JOIN students st ON st.id = sc.student_id
		WHERE sc.course_id = ?
		AND sc.status = 'active'
		ORDER BY st.student_no
	`)

	roster := []models.RosterEntry{}
	if err := sqlx.SelectContext(ctx, s.ext(), &roster, query, courseID); err != nil {
		return nil, fmt.Errorf("failed to list roster of course %d: %w", courseID, err)
	}
	return roster, nil
}
