package models

import "time"

type Class struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name" validate:"required,max=100"`
	Grade        string    `db:"grade" json:"grade" validate:"max=50"`
	StudentCount int       `db:"student_count" json:"studentCount"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
