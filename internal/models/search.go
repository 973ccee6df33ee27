package models

type SearchResult struct {
	Courses      []Course  `json:"courses"`
	CourseTotal  int       `json:"courseTotal"`
	Students     []Student `json:"students"`
	StudentTotal int       `json:"studentTotal"`
	Total        int       `json:"total"`
}
