package models

import "time"

const (
	CourseStatusOpen   = "open"
	CourseStatusClosed = "closed"

	DefaultCourseCapacity = 50
)

type Course struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name" validate:"required,max=200"`
	Code        string     `db:"code" json:"code" validate:"required,max=50"`
	Description string     `db:"description" json:"description"`
	TeacherID   *int64     `db:"teacher_id" json:"teacherId,omitempty"`
	Category    string     `db:"category" json:"category" validate:"max=50"`
	Capacity    int        `db:"capacity" json:"capacity" validate:"gte=0"`
	Enrolled    int        `db:"enrolled" json:"enrolled"`
	Status      string     `db:"status" json:"status" validate:"required,max=20"`
	StartDate   *time.Time `db:"start_date" json:"startDate,omitempty"`
	EndDate     *time.Time `db:"end_date" json:"endDate,omitempty"`
	Credits     *int       `db:"credits" json:"credits,omitempty"`
	Location    string     `db:"location" json:"location" validate:"max=200"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

func (c *Course) IsOpen() bool {
	return c.Status == CourseStatusOpen
}

func (c *Course) IsFull() bool {
	return c.Enrolled >= c.Capacity
}

// CourseUpdate is a partial update; nil fields are left untouched.
// Enrolled is deliberately absent: only the enrollment lifecycle moves it.
type CourseUpdate struct {
	Name        *string    `json:"name" validate:"omitempty,max=200"`
	Description *string    `json:"description"`
	TeacherID   *int64     `json:"teacherId"`
	Category    *string    `json:"category" validate:"omitempty,max=50"`
	Capacity    *int       `json:"capacity" validate:"omitempty,gte=0"`
	Status      *string    `json:"status" validate:"omitempty,max=20"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Credits     *int       `json:"credits"`
	Location    *string    `json:"location" validate:"omitempty,max=200"`
}

func (u *CourseUpdate) Apply(c *Course) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.TeacherID != nil {
		c.TeacherID = u.TeacherID
	}
	if u.Category != nil {
		c.Category = *u.Category
	}
	if u.Capacity != nil {
		c.Capacity = *u.Capacity
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.StartDate != nil {
		c.StartDate = u.StartDate
	}
	if u.EndDate != nil {
		c.EndDate = u.EndDate
	}
	if u.Credits != nil {
		c.Credits = u.Credits
	}
	if u.Location != nil {
		c.Location = *u.Location
	}
}

type CourseFilter struct {
	Keyword string
	Status  string
}
