package models

import "time"

const StudentStatusActive = "active"

type Student struct {
	ID            int64     `db:"id" json:"id"`
	StudentNo     string    `db:"student_no" json:"studentNo" validate:"required,max=50"`
	Name          string    `db:"name" json:"name" validate:"required,max=100"`
	ClassID       int64     `db:"class_id" json:"classId" validate:"required"`
	Gender        string    `db:"gender" json:"gender" validate:"omitempty,oneof=M F"`
	Age           *int      `db:"age" json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
	Phone         string    `db:"phone" json:"phone" validate:"max=20"`
	Email         string    `db:"email" json:"email" validate:"omitempty,email,max=100"`
	Major         string    `db:"major" json:"major" validate:"max=100"`
	AdmissionYear *int      `db:"admission_year" json:"admissionYear,omitempty"`
	Status        string    `db:"status" json:"status" validate:"required,max=20"`
	ClassName     string    `db:"class_name" json:"className"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

type StudentFilter struct {
	Keyword string
	ClassID int64
	Status  string
}
