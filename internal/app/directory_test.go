package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/registrar/internal/models"
)

func seedClass(t *testing.T, svc *Service, name string) *models.Class {
	t.Helper()
	class := &models.Class{Name: name}
	require.NoError(t, svc.Directory.CreateClass(context.Background(), class))
	return class
}

func seedStudent(t *testing.T, svc *Service, no string, classID int64) *models.Student {
	t.Helper()
	student := &models.Student{StudentNo: no, Name: "Student " + no, ClassID: classID}
	require.NoError(t, svc.Directory.CreateStudent(context.Background(), student))
	return student
}

func TestCreateCourseDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	course := &models.Course{Name: "Algorithms", Code: "CS201"}
	require.NoError(t, svc.Directory.CreateCourse(ctx, course))
	assert.Equal(t, models.DefaultCourseCapacity, course.Capacity)
	assert.Equal(t, models.CourseStatusOpen, course.Status)
	assert.Equal(t, 0, course.Enrolled)

	err := svc.Directory.CreateCourse(ctx, &models.Course{Name: "Again", Code: "CS201"})
	assert.ErrorIs(t, err, models.ErrCourseCodeTaken)

	err = svc.Directory.CreateCourse(ctx, &models.Course{Name: "Odd", Code: "CS202", Status: "archived"})
	assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
}

func TestUpdateCourseNeverTouchesEnrolled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	class := seedClass(t, svc, "A1")
	student := seedStudent(t, svc, "s100", class.ID)
	course := &models.Course{Name: "Networks", Code: "NET1", Capacity: 3}
	require.NoError(t, svc.Directory.CreateCourse(ctx, course))
	_, err := svc.Lifecycle.Enroll(ctx, student.ID, course.ID)
	require.NoError(t, err)

	name := "Computer Networks"
	updated, err := svc.Directory.UpdateCourse(ctx, course.ID, &models.CourseUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, 1, updated.Enrolled)

	zero := 0
	_, err = svc.Directory.UpdateCourse(ctx, course.ID, &models.CourseUpdate{Capacity: &zero})
	assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))

	closed, err := svc.Directory.SetCourseStatus(ctx, course.ID, models.CourseStatusClosed)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen())
	assert.Equal(t, 1, closed.Enrolled)

	_, err = svc.Directory.UpdateCourse(ctx, 9999, &models.CourseUpdate{Name: &name})
	assert.ErrorIs(t, err, models.ErrCourseNotFound)
}

func TestDeleteCourse(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	class := seedClass(t, svc, "A1")
	student := seedStudent(t, svc, "s100", class.ID)
	course := &models.Course{Name: "Compilers", Code: "CMP1"}
	require.NoError(t, svc.Directory.CreateCourse(ctx, course))
	_, err := svc.Lifecycle.Enroll(ctx, student.ID, course.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Directory.DeleteCourse(ctx, course.ID), models.ErrCourseInUse)

	require.NoError(t, svc.Lifecycle.Drop(ctx, student.ID, course.ID))
	require.NoError(t, svc.Directory.DeleteCourse(ctx, course.ID))

	_, err = svc.Directory.GetCourse(ctx, course.ID)
	assert.ErrorIs(t, err, models.ErrCourseNotFound)
}

func TestStudentLifecycleKeepsClassCount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := seedClass(t, svc, "A1")
	b := seedClass(t, svc, "B1")
	s1 := seedStudent(t, svc, "s1", a.ID)
	seedStudent(t, svc, "s2", a.ID)

	got, err := svc.Directory.GetClass(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.StudentCount)

	moved := *s1
	moved.ClassID = b.ID
	updated, err := svc.Directory.UpdateStudent(ctx, s1.ID, &moved)
	require.NoError(t, err)
	assert.Equal(t, "B1", updated.ClassName)

	got, _ = svc.Directory.GetClass(ctx, a.ID)
	assert.Equal(t, 1, got.StudentCount)
	got, _ = svc.Directory.GetClass(ctx, b.ID)
	assert.Equal(t, 1, got.StudentCount)

	assert.ErrorIs(t, svc.Directory.DeleteClass(ctx, b.ID), models.ErrClassInUse)

	require.NoError(t, svc.Directory.DeleteStudent(ctx, s1.ID))
	got, _ = svc.Directory.GetClass(ctx, b.ID)
	assert.Equal(t, 0, got.StudentCount)
	require.NoError(t, svc.Directory.DeleteClass(ctx, b.ID))
}

func TestCreateStudentValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	class := seedClass(t, svc, "A1")

	testCases := []struct {
		name    string
		student models.Student
		kind    models.ErrorKind
	}{
		{"missing name", models.Student{StudentNo: "x1", ClassID: class.ID}, models.KindInvalidArgument},
		{"bad gender", models.Student{StudentNo: "x2", Name: "X", ClassID: class.ID, Gender: "Q"}, models.KindInvalidArgument},
		{"unknown class", models.Student{StudentNo: "x3", Name: "X", ClassID: 9999}, models.KindNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			student := tc.student
			err := svc.Directory.CreateStudent(ctx, &student)
			assert.Equal(t, tc.kind, models.KindOf(err))
		})
	}

	seedStudent(t, svc, "dup", class.ID)
	err := svc.Directory.CreateStudent(ctx, &models.Student{StudentNo: "dup", Name: "Y", ClassID: class.ID})
	assert.ErrorIs(t, err, models.ErrStudentNoTaken)
}

func TestDeleteStudentReleasesSeats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	class := seedClass(t, svc, "A1")
	leaver := seedStudent(t, svc, "s1", class.ID)
	stayer := seedStudent(t, svc, "s2", class.ID)
	course := &models.Course{Name: "Tiny", Code: "T1", Capacity: 1}
	require.NoError(t, svc.Directory.CreateCourse(ctx, course))

	_, err := svc.Lifecycle.Enroll(ctx, leaver.ID, course.ID)
	require.NoError(t, err)
	_, err = svc.Lifecycle.Enroll(ctx, stayer.ID, course.ID)
	require.ErrorIs(t, err, models.ErrCourseFull)

	require.NoError(t, svc.Directory.DeleteStudent(ctx, leaver.ID))

	got, err := svc.Directory.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Enrolled)

	_, err = svc.Lifecycle.Enroll(ctx, stayer.ID, course.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Directory.DeleteStudent(ctx, leaver.ID), models.ErrStudentNotFound)
}

func TestListPaging(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	class := seedClass(t, svc, "A1")
	for _, no := range []string{"a1", "a2", "a3"} {
		seedStudent(t, svc, no, class.ID)
	}

	page, err := svc.Directory.ListStudents(ctx, models.StudentFilter{}, svc.PageRequest(2, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 1)

	req := svc.PageRequest(0, 1000)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 100, req.Size)
}
