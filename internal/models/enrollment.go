package models

import "time"

const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
)

// Enrollment is a row of student_courses. There is no dropped status:
// dropping deletes the row.
type Enrollment struct {
	ID         int64     `db:"id" json:"id"`
	StudentID  int64     `db:"student_id" json:"studentId"`
	CourseID   int64     `db:"course_id" json:"courseId"`
	Status     string    `db:"status" json:"status"`
	Grade      *string   `db:"grade" json:"grade,omitempty"`
	EnrollDate time.Time `db:"enroll_date" json:"enrollDate"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}

// EnrollmentView is the enrollment joined with its course, as returned to clients.
// For available-course listings it carries only course data and ID equals CourseID.
type EnrollmentView struct {
	ID          int64      `db:"id" json:"id"`
	StudentID   int64      `db:"student_id" json:"studentId,omitempty"`
	CourseID    int64      `db:"course_id" json:"courseId"`
	CourseName  string     `db:"course_name" json:"courseName"`
	CourseCode  string     `db:"course_code" json:"courseCode"`
	TeacherName string     `db:"teacher_name" json:"teacherName"`
	Credits     *int       `db:"credits" json:"credits,omitempty"`
	Capacity    int        `db:"capacity" json:"capacity"`
	Enrolled    int        `db:"enrolled" json:"enrolled"`
	Location    string     `db:"location" json:"location"`
	Status      string     `db:"status" json:"status"`
	Grade       *string    `db:"grade" json:"grade,omitempty"`
	EnrollDate  *time.Time `db:"enroll_date" json:"enrollDate,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

type EnrollRequest struct {
	CourseID  int64  `json:"courseId"`
	StudentID *int64 `json:"studentId"`
}

type GradeRequest struct {
	StudentID int64  `json:"studentId" validate:"required"`
	CourseID  int64  `json:"courseId" validate:"required"`
	Grade     string `json:"grade" validate:"required,min=1,max=2"`
}

type CompleteRequest struct {
	StudentID int64 `json:"studentId" validate:"required"`
	CourseID  int64 `json:"courseId" validate:"required"`
}

// RosterEntry is one active student of a course.
type RosterEntry struct {
	EnrollmentID int64     `db:"enrollment_id" json:"enrollmentId"`
	StudentID    int64     `db:"student_id" json:"studentId"`
	StudentNo    string    `db:"student_no" json:"studentNo"`
	StudentName  string    `db:"student_name" json:"studentName"`
	Status       string    `db:"status" json:"status"`
	Grade        *string   `db:"grade" json:"grade,omitempty"`
	EnrollDate   time.Time `db:"enroll_date" json:"enrollDate"`
}
