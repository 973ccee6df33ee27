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

const studentColumns = `
	s.id, s.student_no, s.name, s.class_id, s.gender, s.age, s.phone, s.email,
	s.major, s.admission_year, s.status, COALESCE(c.name, '') AS class_name,
	s.created_at, s.updated_at`

func (s *BaseStore) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	var student models.Student
	query := s.Converter(`
		SELECT` + studentColumns + `
		FROM students s
		LEFT JOIN classes c ON c.id = s.class_id
		WHERE s.id = ?
	`)

	err := sqlx.GetContext(ctx, s.ext(), &student, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student %d: %w", id, err)
	}
	return &student, nil
}

func (s *BaseStore) GetStudentByNo(ctx context.Context, studentNo string) (*models.Student, error) {
	var student models.Student
	query := s.Converter(`
		SELECT` + studentColumns + `
		FROM students s
		LEFT JOIN classes c ON c.id = s.class_id
		WHERE s.student_no = ?
	`)

	err := sqlx.GetContext(ctx, s.ext(), &student, query, studentNo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student by number: %w", err)
	}
	return &student, nil
}

func (s *BaseStore) StudentExists(ctx context.Context, id int64) (bool, error) {
	n, err := s.count(ctx, `SELECT COUNT(*) FROM students WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check student %d: %w", id, err)
	}
	return n > 0, nil
}

func (s *BaseStore) ListStudents(ctx context.Context, filter models.StudentFilter, page models.PageRequest) ([]models.Student, int, error) {
	var conds []string
	var args []interface{}
	if filter.Keyword != "" {
		conds = append(conds, "(LOWER(s.name) LIKE ? OR LOWER(s.student_no) LIKE ? OR LOWER(s.email) LIKE ? OR s.phone LIKE ?)")
		kw := likePattern(filter.Keyword)
		args = append(args, kw, kw, kw, kw)
	}
	if filter.ClassID != 0 {
		conds = append(conds, "s.class_id = ?")
		args = append(args, filter.ClassID)
	}
	if filter.Status != "" {
		conds = append(conds, "s.status = ?")
		args = append(args, filter.Status)
	}
	where := whereClause(conds)

	total, err := s.count(ctx, `SELECT COUNT(*) FROM students s `+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count students: %w", err)
	}

	students := []models.Student{}
	query := s.Converter(`
		SELECT` + studentColumns + `
		FROM students s
		LEFT JOIN classes c ON c.id = s.class_id
		` + where + `
		ORDER BY s.id
		` + limitClause(page.Size, page.Offset()))

	if err := sqlx.SelectContext(ctx, s.ext(), &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list students: %w", err)
	}
	return students, total, nil
}

func (s *BaseStore) CreateStudent(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	id, err := s.insertReturningID(ctx, `
		INSERT INTO students (student_no, name, class_id, gender, age, phone, email, major, admission_year, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		student.StudentNo, student.Name, student.ClassID, student.Gender, student.Age, student.Phone,
		student.Email, student.Major, student.AdmissionYear, student.Status, now, now,
	)
	if s.uniqueViolation(err) {
		return models.ErrStudentNoTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	student.ID = id
	student.CreatedAt = now
	student.UpdatedAt = now
	return nil
}

func (s *BaseStore) UpdateStudent(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	_, err := s.exec(ctx, `
		UPDATE students SET
			student_no = ?, name = ?, class_id = ?, gender = ?, age = ?, phone = ?,
			email = ?, major = ?, admission_year = ?, status = ?, updated_at = ?
		WHERE id = ?
	`,
		student.StudentNo, student.Name, student.ClassID, student.Gender, student.Age, student.Phone,
		student.Email, student.Major, student.AdmissionYear, student.Status, now, student.ID,
	)
	if s.uniqueViolation(err) {
		return models.ErrStudentNoTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update student %d: %w", student.ID, err)
	}
	student.UpdatedAt = now
	return nil
}

func (s *BaseStore) DeleteStudent(ctx context.Context, id int64) error {
	if _, err := s.exec(ctx, `DELETE FROM students WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete student %d: %w", id, err)
	}
	return nil
}
