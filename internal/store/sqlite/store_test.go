package sqlite

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/registrar/internal/models"
	"github.com/shrimpsizemoose/registrar/internal/store"
)

func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	s, err := NewSQLiteStore(":memory:", "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

type testData struct {
	store   *SQLiteStore
	now     time.Time
	teacher *models.User
	class   *models.Class
	student *models.Student
	course  *models.Course
}

func setupTestData(t *testing.T) (*testData, func()) {
	s, cleanup := setupTestDB(t)
	ctx := context.Background()

	teacher := &models.User{Username: "prof", PasswordHash: "hash", Role: models.RoleTeacher}
	require.NoError(t, s.CreateUser(ctx, teacher), "Failed to insert test data")

	class := &models.Class{Name: "CS-1", Grade: "2024"}
	require.NoError(t, s.CreateClass(ctx, class))

	student := &models.Student{StudentNo: "s001", Name: "John Doe", ClassID: class.ID, Status: models.StudentStatusActive}
	require.NoError(t, s.CreateStudent(ctx, student))

	course := &models.Course{Name: "Databases", Code: "DB101", Capacity: 2, Status: models.CourseStatusOpen, TeacherID: &teacher.ID}
	require.NoError(t, s.CreateCourse(ctx, course))

	return &testData{
		store:   s,
		now:     time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		teacher: teacher,
		class:   class,
		student: student,
		course:  course,
	}, cleanup
}

func TestMain(m *testing.M) {
	log.Println("Starting SQLite store tests...")
	code := m.Run()
	log.Println("Finished SQLite store tests")
	os.Exit(code)
}

func TestTranslateToSQLite(t *testing.T) {
	in := `CREATE TABLE t (id BIGSERIAL PRIMARY KEY, ref BIGINT, at TIMESTAMPTZ DEFAULT now(), n SERIAL PRIMARY KEY);`
	want := `CREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT, ref INTEGER, at TIMESTAMP DEFAULT CURRENT_TIMESTAMP, n INTEGER PRIMARY KEY AUTOINCREMENT);`
	assert.Equal(t, want, translateToSQLite(in))
}

func TestStudentOperations(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("get student with class name", func(t *testing.T) {
		got, err := td.store.GetStudent(ctx, td.student.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "s001", got.StudentNo)
		assert.Equal(t, "CS-1", got.ClassName)
	})

	t.Run("get by number", func(t *testing.T) {
		got, err := td.store.GetStudentByNo(ctx, "s001")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, td.student.ID, got.ID)
	})

	t.Run("missing student", func(t *testing.T) {
		got, err := td.store.GetStudent(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, got)

		exists, err := td.store.StudentExists(ctx, 9999)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("duplicate number", func(t *testing.T) {
		err := td.store.CreateStudent(ctx, &models.Student{StudentNo: "s001", Name: "Again", ClassID: td.class.ID, Status: "active"})
		assert.ErrorIs(t, err, models.ErrStudentNoTaken)
	})

	t.Run("list with keyword", func(t *testing.T) {
		require.NoError(t, td.store.CreateStudent(ctx, &models.Student{StudentNo: "s002", Name: "Jane Roe", ClassID: td.class.ID, Status: "active"}))

		students, total, err := td.store.ListStudents(ctx, models.StudentFilter{Keyword: "JANE"}, models.PageRequest{Page: 1, Size: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, students, 1)
		assert.Equal(t, "s002", students[0].StudentNo)
	})

	t.Run("class count refresh", func(t *testing.T) {
		require.NoError(t, td.store.RefreshClassStudentCount(ctx, td.class.ID))
		class, err := td.store.GetClass(ctx, td.class.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, class.StudentCount)
	})
}

func TestSeatReservation(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()
	ctx := context.Background()

	ok, err := td.store.ReserveSeat(ctx, td.course.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = td.store.ReserveSeat(ctx, td.course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = td.store.ReserveSeat(ctx, td.course.ID)
	require.NoError(t, err)
	assert.False(t, ok, "capacity 2 must refuse a third seat")

	course, err := td.store.GetCourse(ctx, td.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, course.Enrolled)

	for i := 0; i < 3; i++ {
		ok, err = td.store.ReleaseSeat(ctx, td.course.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	course, err = td.store.GetCourse(ctx, td.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, course.Enrolled, "release must floor at zero")

	ok, err = td.store.ReserveSeat(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateCourseKeepsEnrolled(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()
	ctx := context.Background()

	_, err := td.store.ReserveSeat(ctx, td.course.ID)
	require.NoError(t, err)

	stale := *td.course
	stale.Enrolled = 99
	stale.Name = "Advanced Databases"
	require.NoError(t, td.store.UpdateCourse(ctx, &stale))

	got, err := td.store.GetCourse(ctx, td.course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Advanced Databases", got.Name)
	assert.Equal(t, 1, got.Enrolled)

	err = td.store.CreateCourse(ctx, &models.Course{Name: "x", Code: "DB101", Capacity: 1, Status: "open"})
	assert.ErrorIs(t, err, models.ErrCourseCodeTaken)
}

func TestEnrollmentOperations(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()
	ctx := context.Background()

	enrollment := &models.Enrollment{
		StudentID:  td.student.ID,
		CourseID:   td.course.ID,
		Status:     models.EnrollmentStatusActive,
		EnrollDate: td.now,
	}

	t.Run("create enrollment", func(t *testing.T) {
		require.NoError(t, td.store.CreateEnrollment(ctx, enrollment))
		assert.NotZero(t, enrollment.ID)
	})

	t.Run("second active row is rejected", func(t *testing.T) {
		err := td.store.CreateEnrollment(ctx, &models.Enrollment{
			StudentID:  td.student.ID,
			CourseID:   td.course.ID,
			Status:     models.EnrollmentStatusActive,
			EnrollDate: td.now,
		})
		assert.ErrorIs(t, err, models.ErrDuplicateEnrollment)
	})

	t.Run("view carries course and teacher", func(t *testing.T) {
		view, err := td.store.GetEnrollmentView(ctx, enrollment.ID)
		require.NoError(t, err)
		require.NotNil(t, view)
		assert.Equal(t, "Databases", view.CourseName)
		assert.Equal(t, "DB101", view.CourseCode)
		assert.Equal(t, "prof", view.TeacherName)
		require.NotNil(t, view.EnrollDate)
		assert.True(t, td.now.Equal(*view.EnrollDate))
	})

	t.Run("roster", func(t *testing.T) {
		roster, err := td.store.ListRoster(ctx, td.course.ID)
		require.NoError(t, err)
		require.Len(t, roster, 1)
		assert.Equal(t, "John Doe", roster[0].StudentName)
	})

	t.Run("complete then a new active row is allowed", func(t *testing.T) {
		enrollment.Status = models.EnrollmentStatusCompleted
		require.NoError(t, td.store.UpdateEnrollment(ctx, enrollment))

		again := &models.Enrollment{
			StudentID:  td.student.ID,
			CourseID:   td.course.ID,
			Status:     models.EnrollmentStatusActive,
			EnrollDate: td.now.Add(time.Hour),
		}
		require.NoError(t, td.store.CreateEnrollment(ctx, again))

		found, err := td.store.FindEnrollment(ctx, td.student.ID, td.course.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, again.ID, found.ID, "active row wins over completed")

		total, err := td.store.CountEnrollments(ctx, td.course.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		active, err := td.store.CountActiveEnrollments(ctx, td.course.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, active)
	})

	t.Run("teacherless course", func(t *testing.T) {
		orphan := &models.Course{Name: "Orphan", Code: "ORP", Capacity: 1, Status: "open"}
		require.NoError(t, td.store.CreateCourse(ctx, orphan))
		e := &models.Enrollment{StudentID: td.student.ID, CourseID: orphan.ID, Status: "active", EnrollDate: td.now}
		require.NoError(t, td.store.CreateEnrollment(ctx, e))

		view, err := td.store.GetEnrollmentView(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, "N/A", view.TeacherName)
	})
}

func TestInTxRollsBack(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()
	ctx := context.Background()

	err := td.store.InTx(ctx, func(q store.Queries) error {
		if _, err := q.ReserveSeat(ctx, td.course.ID); err != nil {
			return err
		}
		return models.ErrCourseClosed
	})
	assert.ErrorIs(t, err, models.ErrCourseClosed)

	course, err := td.store.GetCourse(ctx, td.course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, course.Enrolled)
}

func TestUserOperations(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()
	ctx := context.Background()

	err := td.store.CreateUser(ctx, &models.User{Username: "prof", PasswordHash: "x", Role: "teacher"})
	assert.ErrorIs(t, err, models.ErrUsernameTaken)

	require.NoError(t, td.store.TouchLastLogin(ctx, td.teacher.ID))
	got, err := td.store.GetUserByUsername(ctx, "prof")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.LastLoginAt)

	missing, err := td.store.GetUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMessageOperations(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()
	ctx := context.Background()

	student := &models.User{Username: "s001", PasswordHash: "hash", Role: models.RoleStudent}
	require.NoError(t, td.store.CreateUser(ctx, student))

	for _, content := range []string{"first", "second"} {
		require.NoError(t, td.store.CreateMessage(ctx, &models.Message{SenderID: td.teacher.ID, ReceiverID: student.ID, Content: content}))
	}
	reply := &models.Message{SenderID: student.ID, ReceiverID: td.teacher.ID, Content: "reply"}
	require.NoError(t, td.store.CreateMessage(ctx, reply))
	assert.Equal(t, models.MessageStatusUnread, reply.Status)

	t.Run("get with names", func(t *testing.T) {
		got, err := td.store.GetMessage(ctx, reply.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "s001", got.SenderName)
		assert.Equal(t, "prof", got.ReceiverName)

		missing, err := td.store.GetMessage(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("inbox and conversation", func(t *testing.T) {
		inbox, total, err := td.store.ListMessages(ctx, models.MessageFilter{UserID: student.ID}, models.PageRequest{Page: 1, Size: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, inbox, 1)
		assert.Equal(t, "second", inbox[0].Content)

		_, total, err = td.store.ListMessages(ctx, models.MessageFilter{UserID: student.ID, PeerID: td.teacher.ID}, models.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})

	t.Run("read state", func(t *testing.T) {
		n, err := td.store.CountUnreadMessages(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		marked, err := td.store.MarkAllMessagesRead(ctx, student.ID, td.now)
		require.NoError(t, err)
		assert.Equal(t, int64(2), marked)

		_, total, err := td.store.ListMessages(ctx, models.MessageFilter{UserID: student.ID, Status: models.MessageStatusUnread}, models.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, 0, total)

		require.NoError(t, td.store.MarkMessageRead(ctx, reply.ID, td.now))
		require.NoError(t, td.store.MarkMessageRead(ctx, reply.ID, td.now.Add(time.Hour)))
		got, err := td.store.GetMessage(ctx, reply.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ReadAt)
		assert.True(t, td.now.Equal(*got.ReadAt), "first read time is kept")
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, td.store.DeleteMessage(ctx, reply.ID))
		got, err := td.store.GetMessage(ctx, reply.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestGetUserByEmail(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, td.store.CreateUser(ctx, &models.User{Username: "mail", PasswordHash: "hash", Email: "Mail@Example.com", Role: models.RoleStudent}))

	got, err := td.store.GetUserByEmail(ctx, "mail@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "mail", got.Username)

	got, err = td.store.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}
