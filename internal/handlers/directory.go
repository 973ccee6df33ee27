package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/registrar/internal/models"
)

func (rt *router) handleListStudents(w http.ResponseWriter, r *http.Request) {
	classID, err := queryInt64(r, "classId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter := models.StudentFilter{
		Keyword: r.URL.Query().Get("keyword"),
		ClassID: classID,
		Status:  r.URL.Query().Get("status"),
	}

	page, err := rt.service.Directory.ListStudents(r.Context(), filter, rt.pageFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *router) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	student, err := rt.service.Directory.GetStudent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (rt *router) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var student models.Student
	if err := decodeJSON(r, &student); err != nil {
		writeError(w, r, err)
		return
	}

	if err := rt.service.Directory.CreateStudent(r.Context(), &student); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (rt *router) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var changes models.Student
	if err := decodeJSON(r, &changes); err != nil {
		writeError(w, r, err)
		return
	}

	student, err := rt.service.Directory.UpdateStudent(r.Context(), id, &changes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (rt *router) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := rt.service.Directory.DeleteStudent(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (rt *router) handleListCourses(w http.ResponseWriter, r *http.Request) {
	filter := models.CourseFilter{
		Keyword: r.URL.Query().Get("keyword"),
		Status:  r.URL.Query().Get("status"),
	}

	page, err := rt.service.Directory.ListCourses(r.Context(), filter, rt.pageFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *router) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	course, err := rt.service.Directory.GetCourse(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (rt *router) handleRoster(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	course, roster, err := rt.service.Lifecycle.Roster(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"course":   course,
		"students": roster,
	})
}

func (rt *router) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var course models.Course
	if err := decodeJSON(r, &course); err != nil {
		writeError(w, r, err)
		return
	}

	if err := rt.service.Directory.CreateCourse(r.Context(), &course); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

func (rt *router) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var changes models.CourseUpdate
	if err := decodeJSON(r, &changes); err != nil {
		writeError(w, r, err)
		return
	}

	course, err := rt.service.Directory.UpdateCourse(r.Context(), id, &changes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (rt *router) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := rt.service.Directory.DeleteCourse(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (rt *router) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := rt.service.Directory.ListClasses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

func (rt *router) handleGetClass(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	class, err := rt.service.Directory.GetClass(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, class)
}

func (rt *router) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var class models.Class
	if err := decodeJSON(r, &class); err != nil {
		writeError(w, r, err)
		return
	}

	if err := rt.service.Directory.CreateClass(r.Context(), &class); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, class)
}

func (rt *router) handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var changes models.Class
	if err := decodeJSON(r, &changes); err != nil {
		writeError(w, r, err)
		return
	}

	class, err := rt.service.Directory.UpdateClass(r.Context(), id, &changes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, class)
}

func (rt *router) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := rt.service.Directory.DeleteClass(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
