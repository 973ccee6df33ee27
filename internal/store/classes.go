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

func (s *BaseStore) GetClass(ctx context.Context, id int64) (*models.Class, error) {
	var class models.Class
	query := s.Converter(`
		SELECT id, name, grade, student_count, created_at
		FROM classes
		WHERE id = ?
	`)

	err := sqlx.GetContext(ctx, s.ext(), &class, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class %d: %w", id, err)
	}
	return &class, nil
}

func (s *BaseStore) GetClassByName(ctx context.Context, name string) (*models.Class, error) {
	var class models.Class
	query := s.Converter(`
		SELECT id, name, grade, student_count, created_at
		FROM classes
		WHERE name = ?
	`)

	err := sqlx.GetContext(ctx, s.ext(), &class, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class by name: %w", err)
	}
	return &class, nil
}

func (s *BaseStore) ListClasses(ctx context.Context) ([]models.Class, error) {
	classes := []models.Class{}
	err := sqlx.SelectContext(ctx, s.ext(), &classes, `
		SELECT id, name, grade, student_count, created_at
		FROM classes
		ORDER BY grade, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return classes, nil
}

func (s *BaseStore) CreateClass(ctx context.Context, class *models.Class) error {
	now := time.Now().UTC()
	id, err := s.insertReturningID(ctx, `
		INSERT INTO classes (name, grade, student_count, created_at)
		VALUES (?, ?, 0, ?)
		RETURNING id
	`, class.Name, class.Grade, now)
	if s.uniqueViolation(err) {
		return models.ErrClassNameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}
	class.ID = id
	class.StudentCount = 0
	class.CreatedAt = now
	return nil
}

func (s *BaseStore) UpdateClass(ctx context.Context, class *models.Class) error {
	_, err := s.exec(ctx, `UPDATE classes SET name = ?, grade = ? WHERE id = ?`, class.Name, class.Grade, class.ID)
	if s.uniqueViolation(err) {
		return models.ErrClassNameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update class %d: %w", class.ID, err)
	}
	return nil
}

func (s *BaseStore) DeleteClass(ctx context.Context, id int64) error {
	if _, err := s.exec(ctx, `DELETE FROM classes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete class %d: %w", id, err)
	}
	return nil
}

// RefreshClassStudentCount recomputes the cached head count from the students table.
func (s *BaseStore) RefreshClassStudentCount(ctx context.Context, classID int64) error {
	_, err := s.exec(ctx, `
		UPDATE classes
		SET student_count = (SELECT COUNT(*) FROM students WHERE class_id = ?)
		WHERE id = ?
	`, classID, classID)
	if err != nil {
		return fmt.Errorf("failed to refresh student count of class %d: %w", classID, err)
	}
	return nil
}
