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

const courseColumns = `
	id, name, code, description, teacher_id, category, capacity, enrolled, status,
	start_date, end_date, credits, location, created_at, updated_at`

func (s *BaseStore) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	var course models.Course
	query := s.Converter(`SELECT` + courseColumns + ` FROM courses WHERE id = ?`)

	err := sqlx.GetContext(ctx, s.ext(), &course, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course %d: %w", id, err)
	}
	return &course, nil
}

func (s *BaseStore) GetCourseByCode(ctx context.Context, code string) (*models.Course, error) {
	var course models.Course
	query := s.Converter(`SELECT` + courseColumns + ` FROM courses WHERE code = ?`)

	err := sqlx.GetContext(ctx, s.ext(), &course, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by code: %w", err)
	}
	return &course, nil
}

func (s *BaseStore) ListCourses(ctx context.Context, filter models.CourseFilter, page models.PageRequest) ([]models.Course, int, error) {
	var conds []string
	var args []interface{}
	if filter.Keyword != "" {
		conds = append(conds, "(LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR LOWER(description) LIKE ?)")
		kw := likePattern(filter.Keyword)
		args = append(args, kw, kw, kw)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	where := whereClause(conds)

	total, err := s.count(ctx, `SELECT COUNT(*) FROM courses `+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	courses := []models.Course{}
	query := s.Converter(`SELECT` + courseColumns + ` FROM courses ` + where + `
		ORDER BY id
		` + limitClause(page.Size, page.Offset()))

	if err := sqlx.SelectContext(ctx, s.ext(), &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, total, nil
}

func (s *BaseStore) CreateCourse(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	id, err := s.insertReturningID(ctx, `
		INSERT INTO courses (name, code, description, teacher_id, category, capacity, enrolled, status,
			start_date, end_date, credits, location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		course.Name, course.Code, course.Description, course.TeacherID, course.Category, course.Capacity,
		course.Status, course.StartDate, course.EndDate, course.Credits, course.Location, now, now,
	)
	if s.uniqueViolation(err) {
		return models.ErrCourseCodeTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	course.ID = id
	course.Enrolled = 0
	course.CreatedAt = now
	course.UpdatedAt = now
	return nil
}

// UpdateCourse writes the descriptive columns. It never touches enrolled.
func (s *BaseStore) UpdateCourse(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	_, err := s.exec(ctx, `
		UPDATE courses SET
			name = ?, description = ?, teacher_id = ?, category = ?, capacity = ?, status = ?,
			start_date = ?, end_date = ?, credits = ?, location = ?, updated_at = ?
		WHERE id = ?
	`,
		course.Name, course.Description, course.TeacherID, course.Category, course.Capacity, course.Status,
		course.StartDate, course.EndDate, course.Credits, course.Location, now, course.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update course %d: %w", course.ID, err)
	}
	course.UpdatedAt = now
	return nil
}

func (s *BaseStore) DeleteCourse(ctx context.Context, id int64) error {
	if _, err := s.exec(ctx, `DELETE FROM courses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete course %d: %w", id, err)
	}
	return nil
}

// ReserveSeat increments enrolled only while it is below capacity.
// It reports false when no row qualified, either because the course is full or missing.
func (s *BaseStore) ReserveSeat(ctx context.Context, courseID int64) (bool, error) {
	n, err := s.exec(ctx, `
		UPDATE courses
		SET enrolled = enrolled + 1, updated_at = ?
		WHERE id = ? AND enrolled < capacity
	`, time.Now().UTC(), courseID)
	if err != nil {
		return false, fmt.Errorf("failed to reserve seat in course %d: %w", courseID, err)
	}
	return n == 1, nil
}

// ReleaseSeat decrements enrolled, clamped at zero. It reports false for a missing course.
func (s *BaseStore) ReleaseSeat(ctx context.Context, courseID int64) (bool, error) {
	n, err := s.exec(ctx, `
		UPDATE courses
		SET enrolled = CASE WHEN enrolled > 0 THEN enrolled - 1 ELSE 0 END, updated_at = ?
		WHERE id = ?
	`, time.Now().UTC(), courseID)
	if err != nil {
		return false, fmt.Errorf("failed to release seat in course %d: %w", courseID, err)
	}
	return n == 1, nil
}

func (s *BaseStore) CountActiveEnrollments(ctx context.Context, courseID int64) (int, error) {
	n, err := s.count(ctx, `
		SELECT COUNT(*) FROM student_courses
		WHERE course_id = ? AND status = 'active'
	`, courseID)
	if err != nil {
		return 0, fmt.Errorf("failed to count active enrollments of course %d: %w", courseID, err)
	}
	return n, nil
}

func (s *BaseStore) CountEnrollments(ctx context.Context, courseID int64) (int, error) {
	n, err := s.count(ctx, `SELECT COUNT(*) FROM student_courses WHERE course_id = ?`, courseID)
	if err != nil {
		return 0, fmt.Errorf("failed to count enrollments of course %d: %w", courseID, err)
	}
	return n, nil
}
