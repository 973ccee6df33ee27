package handlers

import (
	"net/http"
	"strconv"
)

func (rt *router) handleSearch(w http.ResponseWriter, r *http.Request) {
	result, err := rt.service.Search.Global(r.Context(), r.URL.Query().Get("keyword"), rt.pageFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *router) handleSearchCourses(w http.ResponseWriter, r *http.Request) {
	page, err := rt.service.Search.Courses(r.Context(), r.URL.Query().Get("keyword"), rt.pageFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *router) handleSearchStudents(w http.ResponseWriter, r *http.Request) {
	page, err := rt.service.Search.Students(r.Context(), r.URL.Query().Get("keyword"), rt.pageFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *router) handlePopularKeywords(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 10
	}

	keywords, err := rt.service.Search.PopularKeywords(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keywords)
}
