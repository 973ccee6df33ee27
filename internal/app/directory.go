package app

import (
	"context"
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/registrar/internal/enrollment"
	"github.com/shrimpsizemoose/registrar/internal/models"
	"github.com/shrimpsizemoose/registrar/internal/store"
)

// Directory is CRUD over students, classes and courses. It never writes
// courses.enrolled itself; removals that free seats go through the Lifecycle.
type Directory struct {
	store     store.Store
	lifecycle *enrollment.Lifecycle
}

func NewDirectory(s store.Store, lifecycle *enrollment.Lifecycle) *Directory {
	return &Directory{store: s, lifecycle: lifecycle}
}

func (d *Directory) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	student, err := d.store.GetStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, models.ErrStudentNotFound
	}
	return student, nil
}

func (d *Directory) ListStudents(ctx context.Context, filter models.StudentFilter, page models.PageRequest) (models.Page[models.Student], error) {
	students, total, err := d.store.ListStudents(ctx, filter, page)
	if err != nil {
		return models.Page[models.Student]{}, err
	}
	return models.Page[models.Student]{Items: students, Total: total, Page: page.Page, PageSize: page.Size}, nil
}

func (d *Directory) CreateStudent(ctx context.Context, student *models.Student) error {
	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	if err := models.Validate(student); err != nil {
		return err
	}

	err := d.store.InTx(ctx, func(q store.Queries) error {
		if err := requireClass(ctx, q, student.ClassID); err != nil {
			return err
		}
		if err := q.CreateStudent(ctx, student); err != nil {
			return err
		}
		return q.RefreshClassStudentCount(ctx, student.ClassID)
	})
	if err != nil {
		return err
	}

	logger.Info.Printf("Student %s created with id %d", student.StudentNo, student.ID)
	return nil
}

func (d *Directory) UpdateStudent(ctx context.Context, id int64, changes *models.Student) (*models.Student, error) {
	var updated *models.Student
	err := d.store.InTx(ctx, func(q store.Queries) error {
		current, err := q.GetStudent(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return models.ErrStudentNotFound
		}

		changes.ID = id
		if changes.Status == "" {
			changes.Status = current.Status
		}
		if err := models.Validate(changes); err != nil {
			return err
		}
		if changes.ClassID != current.ClassID {
			if err := requireClass(ctx, q, changes.ClassID); err != nil {
				return err
			}
		}

		if err := q.UpdateStudent(ctx, changes); err != nil {
			return err
		}
		if err := q.RefreshClassStudentCount(ctx, changes.ClassID); err != nil {
			return err
		}
		if changes.ClassID != current.ClassID {
			if err := q.RefreshClassStudentCount(ctx, current.ClassID); err != nil {
				return err
			}
		}

		updated, err = q.GetStudent(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Student %d updated", id)
	return updated, nil
}

// DeleteStudent drops every enrollment of the student, giving their seats
// back, and removes the student in the same transaction.
func (d *Directory) DeleteStudent(ctx context.Context, id int64) error {
	err := d.store.InTx(ctx, func(q store.Queries) error {
		student, err := q.GetStudent(ctx, id)
		if err != nil {
			return err
		}
		if student == nil {
			return models.ErrStudentNotFound
		}

		if err := d.lifecycle.PurgeStudent(ctx, q, id); err != nil {
			return err
		}
		if err := q.DeleteStudent(ctx, id); err != nil {
			return err
		}
		return q.RefreshClassStudentCount(ctx, student.ClassID)
	})
	if err != nil {
		return err
	}

	logger.Info.Printf("Student %d deleted", id)
	return nil
}

func (d *Directory) GetClass(ctx context.Context, id int64) (*models.Class, error) {
	class, err := d.store.GetClass(ctx, id)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, models.ErrClassNotFound
	}
	return class, nil
}

func (d *Directory) ListClasses(ctx context.Context) ([]models.Class, error) {
	return d.store.ListClasses(ctx)
}

func (d *Directory) CreateClass(ctx context.Context, class *models.Class) error {
	if err := models.Validate(class); err != nil {
		return err
	}
	if err := d.store.CreateClass(ctx, class); err != nil {
		return err
	}
	logger.Info.Printf("Class %s created with id %d", class.Name, class.ID)
	return nil
}

func (d *Directory) UpdateClass(ctx context.Context, id int64, changes *models.Class) (*models.Class, error) {
	if err := models.Validate(changes); err != nil {
		return nil, err
	}

	var updated *models.Class
	err := d.store.InTx(ctx, func(q store.Queries) error {
		if err := requireClass(ctx, q, id); err != nil {
			return err
		}
		changes.ID = id
		if err := q.UpdateClass(ctx, changes); err != nil {
			return err
		}
		var err error
		updated, err = q.GetClass(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (d *Directory) DeleteClass(ctx context.Context, id int64) error {
	err := d.store.InTx(ctx, func(q store.Queries) error {
		if err := requireClass(ctx, q, id); err != nil {
			return err
		}
		_, members, err := q.ListStudents(ctx, models.StudentFilter{ClassID: id}, models.PageRequest{Page: 1, Size: 1})
		if err != nil {
			return err
		}
		if members > 0 {
			return models.ErrClassInUse
		}
		return q.DeleteClass(ctx, id)
	})
	if err != nil {
		return err
	}

	logger.Info.Printf("Class %d deleted", id)
	return nil
}

func (d *Directory) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	course, err := d.store.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, models.ErrCourseNotFound
	}
	return course, nil
}

func (d *Directory) ListCourses(ctx context.Context, filter models.CourseFilter, page models.PageRequest) (models.Page[models.Course], error) {
	courses, total, err := d.store.ListCourses(ctx, filter, page)
	if err != nil {
		return models.Page[models.Course]{}, err
	}
	return models.Page[models.Course]{Items: courses, Total: total, Page: page.Page, PageSize: page.Size}, nil
}

// CreateCourse fills the defaults (capacity 50, status open) and always starts at enrolled = 0.
func (d *Directory) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.Capacity == 0 {
		course.Capacity = models.DefaultCourseCapacity
	}
	if course.Status == "" {
		course.Status = models.CourseStatusOpen
	}
	if err := validateCourseStatus(course.Status); err != nil {
		return err
	}
	if err := models.Validate(course); err != nil {
		return err
	}

	if err := d.store.CreateCourse(ctx, course); err != nil {
		return err
	}
	logger.Info.Printf("Course %s created with id %d, capacity %d", course.Code, course.ID, course.Capacity)
	return nil
}

func (d *Directory) UpdateCourse(ctx context.Context, id int64, changes *models.CourseUpdate) (*models.Course, error) {
	if err := models.Validate(changes); err != nil {
		return nil, err
	}
	if changes.Status != nil {
		if err := validateCourseStatus(*changes.Status); err != nil {
			return nil, err
		}
	}

	var updated *models.Course
	err := d.store.InTx(ctx, func(q store.Queries) error {
		course, err := q.GetCourse(ctx, id)
		if err != nil {
			return err
		}
		if course == nil {
			return models.ErrCourseNotFound
		}

		changes.Apply(course)
		if course.Capacity < course.Enrolled {
			return models.NewError(
				models.KindInvalidArgument,
				fmt.Sprintf("capacity %d is below the %d seats already taken", course.Capacity, course.Enrolled),
			)
		}
		if err := q.UpdateCourse(ctx, course); err != nil {
			return err
		}
		updated, err = q.GetCourse(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Course %d updated", id)
	return updated, nil
}

func (d *Directory) SetCourseStatus(ctx context.Context, id int64, status string) (*models.Course, error) {
	return d.UpdateCourse(ctx, id, &models.CourseUpdate{Status: &status})
}

// DeleteCourse refuses while any enrollment row still references the course.
func (d *Directory) DeleteCourse(ctx context.Context, id int64) error {
	err := d.store.InTx(ctx, func(q store.Queries) error {
		course, err := q.GetCourse(ctx, id)
		if err != nil {
			return err
		}
		if course == nil {
			return models.ErrCourseNotFound
		}
		rows, err := q.CountEnrollments(ctx, id)
		if err != nil {
			return err
		}
		if rows > 0 {
			return models.ErrCourseInUse
		}
		return q.DeleteCourse(ctx, id)
	})
	if err != nil {
		return err
	}

	logger.Info.Printf("Course %d deleted", id)
	return nil
}

func requireClass(ctx context.Context, q store.Queries, id int64) error {
	class, err := q.GetClass(ctx, id)
	if err != nil {
		return err
	}
	if class == nil {
		return models.ErrClassNotFound
	}
	return nil
}

func validateCourseStatus(status string) error {
	switch status {
	case models.CourseStatusOpen, models.CourseStatusClosed:
		return nil
	}
	return models.NewError(models.KindInvalidArgument, fmt.Sprintf("unknown course status %q", status))
}
