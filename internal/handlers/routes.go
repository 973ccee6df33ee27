package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/registrar/internal/app"
	"github.com/shrimpsizemoose/registrar/internal/models"
)

type router struct {
	service *app.Service
}

// NewRouter registers every API route on a fresh mux.
func NewRouter(service *app.Service) http.Handler {
	rt := &router{service: service}
	mux := http.NewServeMux()

	anyone := rt.authenticated()
	learners := rt.authenticated(models.RoleStudent, models.RoleAdmin)
	staff := rt.authenticated(models.RoleTeacher, models.RoleAdmin)
	admins := rt.authenticated(models.RoleAdmin)

	mux.HandleFunc("POST /api/auth/login", rt.handleLogin)
	mux.HandleFunc("POST /api/auth/register", rt.handleRegister)
	mux.HandleFunc("POST /api/auth/refresh", rt.handleRefresh)
	mux.HandleFunc("GET /api/auth/me", anyone(rt.handleMe))
	mux.HandleFunc("POST /api/auth/users", admins(rt.handleCreateUser))
	mux.HandleFunc("POST /api/auth/unlock/{username}", admins(rt.handleUnlock))

	mux.HandleFunc("POST /api/student-course/enroll", learners(rt.handleEnroll))
	mux.HandleFunc("POST /api/student-course/drop", learners(rt.handleDrop))
	mux.HandleFunc("DELETE /api/student-course/{id}", learners(rt.handleDropByID))
	mux.HandleFunc("GET /api/student-course/enrolled", anyone(rt.handleListEnrolled))
	mux.HandleFunc("GET /api/student-course/active", anyone(rt.handleListActive))
	mux.HandleFunc("GET /api/student-course/available", anyone(rt.handleListAvailable))
	mux.HandleFunc("GET /api/student-course/history", anyone(rt.handleListHistory))
	mux.HandleFunc("GET /api/student-course/detail", anyone(rt.handleDetail))
	mux.HandleFunc("GET /api/student-course/export", anyone(rt.handleExport))
	mux.HandleFunc("POST /api/student-course/grade", staff(rt.handleGrade))
	mux.HandleFunc("POST /api/student-course/complete", staff(rt.handleComplete))

	mux.HandleFunc("GET /api/students", anyone(rt.handleListStudents))
	mux.HandleFunc("GET /api/students/{id}", anyone(rt.handleGetStudent))
	mux.HandleFunc("POST /api/students", staff(rt.handleCreateStudent))
	mux.HandleFunc("PUT /api/students/{id}", staff(rt.handleUpdateStudent))
	mux.HandleFunc("DELETE /api/students/{id}", staff(rt.handleDeleteStudent))

	mux.HandleFunc("GET /api/courses", anyone(rt.handleListCourses))
	mux.HandleFunc("GET /api/courses/{id}", anyone(rt.handleGetCourse))
	mux.HandleFunc("GET /api/courses/{id}/roster", staff(rt.handleRoster))
	mux.HandleFunc("POST /api/courses", staff(rt.handleCreateCourse))
	mux.HandleFunc("PUT /api/courses/{id}", staff(rt.handleUpdateCourse))
	mux.HandleFunc("DELETE /api/courses/{id}", staff(rt.handleDeleteCourse))

	mux.HandleFunc("GET /api/classes", anyone(rt.handleListClasses))
	mux.HandleFunc("GET /api/classes/{id}", anyone(rt.handleGetClass))
	mux.HandleFunc("POST /api/classes", staff(rt.handleCreateClass))
	mux.HandleFunc("PUT /api/classes/{id}", staff(rt.handleUpdateClass))
	mux.HandleFunc("DELETE /api/classes/{id}", staff(rt.handleDeleteClass))

	mux.HandleFunc("POST /api/messages", anyone(rt.handleSendMessage))
	mux.HandleFunc("GET /api/messages", anyone(rt.handleInbox))
	mux.HandleFunc("GET /api/messages/unread", anyone(rt.handleUnread))
	mux.HandleFunc("GET /api/messages/unread-count", anyone(rt.handleUnreadCount))
	mux.HandleFunc("GET /api/messages/latest", anyone(rt.handleLatestMessages))
	mux.HandleFunc("GET /api/messages/conversation/{userId}", anyone(rt.handleConversation))
	mux.HandleFunc("POST /api/messages/read-all", anyone(rt.handleMarkAllRead))
	mux.HandleFunc("POST /api/messages/{id}/read", anyone(rt.handleMarkRead))
	mux.HandleFunc("DELETE /api/messages/{id}", anyone(rt.handleDeleteMessage))

	mux.HandleFunc("GET /api/search", anyone(rt.handleSearch))
	mux.HandleFunc("GET /api/search/courses", anyone(rt.handleSearchCourses))
	mux.HandleFunc("GET /api/search/students", anyone(rt.handleSearchStudents))
	mux.HandleFunc("GET /api/search/popular-keywords", anyone(rt.handlePopularKeywords))

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return WithRequestID(Instrument(mux))
}
