package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/registrar/internal/models"
)

// Queries is everything that can run either on the pool or inside a transaction.
// Single-row getters return (nil, nil) when nothing matches.
type Queries interface {
	GetStudent(ctx context.Context, id int64) (*models.Student, error)
	GetStudentByNo(ctx context.Context, studentNo string) (*models.Student, error)
	StudentExists(ctx context.Context, id int64) (bool, error)
	ListStudents(ctx context.Context, filter models.StudentFilter, page models.PageRequest) ([]models.Student, int, error)
	CreateStudent(ctx context.Context, student *models.Student) error
	UpdateStudent(ctx context.Context, student *models.Student) error
	DeleteStudent(ctx context.Context, id int64) error

	GetClass(ctx context.Context, id int64) (*models.Class, error)
	GetClassByName(ctx context.Context, name string) (*models.Class, error)
	ListClasses(ctx context.Context) ([]models.Class, error)
	CreateClass(ctx context.Context, class *models.Class) error
	UpdateClass(ctx context.Context, class *models.Class) error
	DeleteClass(ctx context.Context, id int64) error
	RefreshClassStudentCount(ctx context.Context, classID int64) error

	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	GetCourseByCode(ctx context.Context, code string) (*models.Course, error)
	ListCourses(ctx context.Context, filter models.CourseFilter, page models.PageRequest) ([]models.Course, int, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	UpdateCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, id int64) error
	ReserveSeat(ctx context.Context, courseID int64) (bool, error)
	ReleaseSeat(ctx context.Context, courseID int64) (bool, error)
	CountActiveEnrollments(ctx context.Context, courseID int64) (int, error)
	CountEnrollments(ctx context.Context, courseID int64) (int, error)

	GetEnrollment(ctx context.Context, id int64) (*models.Enrollment, error)
	FindEnrollment(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	ListEnrollmentsByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error)
	CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	UpdateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	DeleteEnrollment(ctx context.Context, id int64) error
	GetEnrollmentView(ctx context.Context, id int64) (*models.EnrollmentView, error)
	ListEnrollmentViews(ctx context.Context, studentID int64, status string) ([]models.EnrollmentView, error)
	ListAvailableCourses(ctx context.Context, studentID int64) ([]models.EnrollmentView, error)
	ListRoster(ctx context.Context, courseID int64) ([]models.RosterEntry, error)

	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, userID int64) error

	GetMessage(ctx context.Context, id int64) (*models.Message, error)
	ListMessages(ctx context.Context, filter models.MessageFilter, page models.PageRequest) ([]models.Message, int, error)
	CountUnreadMessages(ctx context.Context, receiverID int64) (int, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	MarkMessageRead(ctx context.Context, id int64, at time.Time) error
	MarkAllMessagesRead(ctx context.Context, receiverID int64, at time.Time) (int64, error)
	DeleteMessage(ctx context.Context, id int64) error
}

type Store interface {
	Queries

	Close() error
	ApplyMigrations(dir string) error
	// InTx runs fn in one transaction; any error from fn rolls everything back.
	InTx(ctx context.Context, fn func(q Queries) error) error
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB                *sqlx.DB
	Converter         func(string) string
	IsUniqueViolation func(error) bool

	tx *sqlx.Tx
}

func (s *BaseStore) ext() sqlx.ExtContext {
	if s.tx != nil {
		return s.tx
	}
	return s.DB
}

func (s *BaseStore) uniqueViolation(err error) bool {
	return s.IsUniqueViolation != nil && s.IsUniqueViolation(err)
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

func (s *BaseStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	scoped := &BaseStore{
		DB:                s.DB,
		Converter:         s.Converter,
		IsUniqueViolation: s.IsUniqueViolation,
		tx:                tx,
	}

	if err := fn(scoped); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error.Printf("Rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory in file name order, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		names = append(names, file.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		logger.Debug.Printf("Applying migration: %s", name)
		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}

	return nil
}

// insertReturningID runs an INSERT ... RETURNING id statement.
func (s *BaseStore) insertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := s.ext().QueryRowxContext(ctx, s.Converter(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *BaseStore) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := s.ext().ExecContext(ctx, s.Converter(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *BaseStore) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, s.ext(), &n, s.Converter(query), args...); err != nil {
		return 0, err
	}
	return n, nil
}
