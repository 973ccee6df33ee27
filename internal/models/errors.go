package models

import "errors"

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalidArgument
	KindUnauthorized
	KindLocked
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnauthorized:
		return "unauthorized"
	case KindLocked:
		return "locked"
	default:
		return "internal"
	}
}

// Error is a domain failure the caller is expected to surface as-is.
// Sentinels below are compared by identity with errors.Is.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrStudentNotFound    = NewError(KindNotFound, "student not found")
	ErrCourseNotFound     = NewError(KindNotFound, "course not found")
	ErrClassNotFound      = NewError(KindNotFound, "class not found")
	ErrUserNotFound       = NewError(KindNotFound, "user not found")
	ErrEnrollmentNotFound = NewError(KindNotFound, "enrollment not found")
	ErrMessageNotFound    = NewError(KindNotFound, "message not found")
	ErrReceiverNotFound   = NewError(KindNotFound, "receiver not found")

	ErrDuplicateEnrollment = NewError(KindConflict, "student is already enrolled in this course")
	ErrCourseFull          = NewError(KindConflict, "course is full")
	ErrCourseClosed        = NewError(KindConflict, "course is not open for enrollment")
	ErrNotActive           = NewError(KindConflict, "only active enrollments can be dropped")
	ErrCourseCodeTaken     = NewError(KindConflict, "course code already exists")
	ErrStudentNoTaken      = NewError(KindConflict, "student number already exists")
	ErrClassNameTaken      = NewError(KindConflict, "class name already exists")
	ErrUsernameTaken       = NewError(KindConflict, "username already exists")
	ErrEmailTaken          = NewError(KindConflict, "email already exists")
	ErrCourseInUse         = NewError(KindConflict, "course still has enrolled students")
	ErrClassInUse          = NewError(KindConflict, "class still has students")

	ErrForbidden        = NewError(KindForbidden, "not allowed to operate on this enrollment")
	ErrMessageForbidden = NewError(KindForbidden, "not allowed to operate on this message")

	ErrInvalidArgument   = NewError(KindInvalidArgument, "invalid argument")
	ErrStudentUnresolved = NewError(KindInvalidArgument, "studentId missing and cannot be resolved from login")

	ErrBadCredentials = NewError(KindUnauthorized, "invalid username or password")
	ErrInvalidToken   = NewError(KindUnauthorized, "invalid or expired token")
	ErrLoginLocked    = NewError(KindLocked, "login locked, please try again later")
)
