package app

import (
	"context"
	"strings"

	"github.com/shrimpsizemoose/registrar/internal/models"
	"github.com/shrimpsizemoose/registrar/internal/store"
)

// Search runs keyword lookups over the course and student listings.
// An empty keyword matches everything.
type Search struct {
	store store.Store
}

func NewSearch(s store.Store) *Search {
	return &Search{store: s}
}

func (s *Search) Courses(ctx context.Context, keyword string, page models.PageRequest) (models.Page[models.Course], error) {
	courses, total, err := s.store.ListCourses(ctx, models.CourseFilter{Keyword: strings.TrimSpace(keyword)}, page)
	if err != nil {
		return models.Page[models.Course]{}, err
	}
	return models.Page[models.Course]{Items: courses, Total: total, Page: page.Page, PageSize: page.Size}, nil
}

func (s *Search) Students(ctx context.Context, keyword string, page models.PageRequest) (models.Page[models.Student], error) {
	students, total, err := s.store.ListStudents(ctx, models.StudentFilter{Keyword: strings.TrimSpace(keyword)}, page)
	if err != nil {
		return models.Page[models.Student]{}, err
	}
	return models.Page[models.Student]{Items: students, Total: total, Page: page.Page, PageSize: page.Size}, nil
}

// Global pages courses and students with the same page request and reports
// both totals plus their sum.
func (s *Search) Global(ctx context.Context, keyword string, page models.PageRequest) (*models.SearchResult, error) {
	courses, err := s.Courses(ctx, keyword, page)
	if err != nil {
		return nil, err
	}
	students, err := s.Students(ctx, keyword, page)
	if err != nil {
		return nil, err
	}

	return &models.SearchResult{
		Courses:      courses.Items,
		CourseTotal:  courses.Total,
		Students:     students.Items,
		StudentTotal: students.Total,
		Total:        courses.Total + students.Total,
	}, nil
}

// PopularKeywords suggests distinct course names, at least one.
func (s *Search) PopularKeywords(ctx context.Context, limit int) ([]string, error) {
	if limit < 1 {
		limit = 1
	}
	courses, _, err := s.store.ListCourses(ctx, models.CourseFilter{}, models.PageRequest{})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	keywords := []string{}
	for _, c := range courses {
		name := strings.TrimSpace(c.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		keywords = append(keywords, name)
		if len(keywords) == limit {
			break
		}
	}
	return keywords, nil
}
