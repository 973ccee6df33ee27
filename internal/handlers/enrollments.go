package handlers

import (
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/registrar/internal/models"
)

// resolveStudent picks the explicit id when given, otherwise the caller's own student record.
// Students always act as themselves: an explicit id naming someone else is forbidden.
func (rt *router) resolveStudent(r *http.Request, explicit *int64) (int64, error) {
	claims := claimsFrom(r.Context())
	if claims == nil {
		return rt.service.Lifecycle.ResolveStudentID(r.Context(), explicit, "")
	}
	if claims.Role != models.RoleStudent {
		return rt.service.Lifecycle.ResolveStudentID(r.Context(), explicit, claims.Username)
	}

	own, err := rt.service.Lifecycle.ResolveStudentID(r.Context(), nil, claims.Username)
	if err != nil {
		return 0, err
	}
	if explicit != nil && *explicit > 0 && *explicit != own {
		return 0, models.ErrForbidden
	}
	return own, nil
}

func (rt *router) studentFromQuery(r *http.Request) (int64, error) {
	explicit, err := queryOptionalInt64(r, "studentId")
	if err != nil {
		return 0, err
	}
	return rt.resolveStudent(r, explicit)
}

func (rt *router) pageFromQuery(r *http.Request) models.PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return rt.service.PageRequest(page, size)
}

func (rt *router) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req models.EnrollRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.CourseID == 0 {
		courseID, err := queryInt64(r, "courseId")
		if err != nil {
			writeError(w, r, err)
			return
		}
		req.CourseID = courseID
	}
	if req.StudentID == nil {
		explicit, err := queryOptionalInt64(r, "studentId")
		if err != nil {
			writeError(w, r, err)
			return
		}
		req.StudentID = explicit
	}

	studentID, err := rt.resolveStudent(r, req.StudentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := rt.service.Lifecycle.Enroll(r.Context(), studentID, req.CourseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *router) handleDrop(w http.ResponseWriter, r *http.Request) {
	courseID, err := queryInt64(r, "courseId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	studentID, err := rt.studentFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := rt.service.Lifecycle.Drop(r.Context(), studentID, courseID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (rt *router) handleDropByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	// students may only drop their own enrollments
	var requester *int64
	if claims := claimsFrom(r.Context()); claims != nil && claims.Role == models.RoleStudent {
		own, err := rt.resolveStudent(r, nil)
		if err != nil {
			writeError(w, r, err)
			return
		}
		requester = &own
	}

	if err := rt.service.Lifecycle.DropByID(r.Context(), id, requester); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (rt *router) handleListEnrolled(w http.ResponseWriter, r *http.Request) {
	studentID, err := rt.studentFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := rt.service.Lifecycle.ListEnrolled(r.Context(), studentID, r.URL.Query().Get("status"), rt.pageFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *router) handleListActive(w http.ResponseWriter, r *http.Request) {
	studentID, err := rt.studentFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views, err := rt.service.Lifecycle.ListActive(r.Context(), studentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (rt *router) handleListAvailable(w http.ResponseWriter, r *http.Request) {
	studentID, err := rt.studentFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := rt.service.Lifecycle.ListAvailable(r.Context(), studentID, rt.pageFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *router) handleListHistory(w http.ResponseWriter, r *http.Request) {
	studentID, err := rt.studentFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := rt.service.Lifecycle.ListHistory(r.Context(), studentID, rt.pageFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *router) handleDetail(w http.ResponseWriter, r *http.Request) {
	courseID, err := queryInt64(r, "courseId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	studentID, err := rt.studentFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := rt.service.Lifecycle.Detail(r.Context(), studentID, courseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *router) handleExport(w http.ResponseWriter, r *http.Request) {
	studentID, err := rt.studentFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, err := rt.service.Lifecycle.ExportCSV(r.Context(), studentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="enrollments.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func (rt *router) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req models.GradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := models.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := rt.service.Lifecycle.Grade(r.Context(), req.StudentID, req.CourseID, req.Grade); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (rt *router) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req models.CompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := models.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := rt.service.Lifecycle.Complete(r.Context(), req.StudentID, req.CourseID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
