package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shrimpsizemoose/registrar/internal/models"
)

const (
	generalHint = "Use commands to talk to the bot. Send /help for the list."

	publicHelp = `Available commands:
/help - Show this message

This bot is for registrar administrators.`

	adminHelp = `Available commands:
/course list - Courses with seats taken
/course open <courseId> - Open a course for enrollment
/course close <courseId> - Close a course for enrollment
/roster <courseId> - Active students of a course
/grade <studentId> <courseId> <grade> - Set a grade
/complete <studentId> <courseId> - Mark an enrollment completed
/unlock <username> - Clear a login lock
/help - Show this message

Examples:
/course close 12
/grade 31 12 A+`
)

type commandHandler func(ctx context.Context, args []string) (string, error)

func (b *Bot) routePublicCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start": b.handleStart,
		"help":  b.handleHelp,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeAdminCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"help":     b.handleAdminHelp,
		"course":   b.handleCourse,
		"roster":   b.handleRoster,
		"grade":    b.handleGrade,
		"complete": b.handleComplete,
		"unlock":   b.handleUnlock,
	}
	handler, found := commands[cmd]
	return handler, found
}

// execute runs one command and returns the reply text.
func (b *Bot) execute(ctx context.Context, cmd, rawArgs string, isAdmin bool) (string, error) {
	args := strings.Fields(rawArgs)

	if isAdmin {
		if handler, ok := b.routeAdminCommands(cmd); ok {
			return handler(ctx, args)
		}
	}
	if handler, ok := b.routePublicCommands(cmd); ok {
		return handler(ctx, args)
	}
	if isAdmin {
		return generalHint, nil
	}
	return publicHelp, nil
}

func (b *Bot) handleStart(ctx context.Context, args []string) (string, error) {
	return "Hi! I am the registrar bot.\n\n" + publicHelp, nil
}

func (b *Bot) handleHelp(ctx context.Context, args []string) (string, error) {
	return publicHelp, nil
}

func (b *Bot) handleAdminHelp(ctx context.Context, args []string) (string, error) {
	return adminHelp, nil
}

func (b *Bot) handleCourse(ctx context.Context, args []string) (string, error) {
	if len(args) < 1 {
		return "Usage:\n/course list\n/course open <courseId>\n/course close <courseId>", nil
	}

	switch args[0] {
	case "list":
		return b.handleCourseList(ctx)
	case "open", "close":
		if len(args) < 2 {
			return "", fmt.Errorf("specify a course: /course %s 12", args[0])
		}
		id, err := parseID(args[1], "courseId")
		if err != nil {
			return "", err
		}
		status := models.CourseStatusOpen
		if args[0] == "close" {
			status = models.CourseStatusClosed
		}
		course, err := b.service.Directory.SetCourseStatus(ctx, id, status)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Course %s is now %s (%d/%d)", course.Code, course.Status, course.Enrolled, course.Capacity), nil
	default:
		return "", fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func (b *Bot) handleCourseList(ctx context.Context) (string, error) {
	page, err := b.service.Directory.ListCourses(ctx, models.CourseFilter{}, models.PageRequest{})
	if err != nil {
		return "", err
	}
	if len(page.Items) == 0 {
		return "No courses yet", nil
	}

	var sb strings.Builder
	sb.WriteString("Courses:\n\n")
	for _, c := range page.Items {
		sb.WriteString(fmt.Sprintf("%d. %s %s [%s] %d/%d\n", c.ID, c.Code, c.Name, c.Status, c.Enrolled, c.Capacity))
	}
	return sb.String(), nil
}

func (b *Bot) handleRoster(ctx context.Context, args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("usage: /roster <courseId>")
	}
	id, err := parseID(args[0], "courseId")
	if err != nil {
		return "", err
	}

	course, roster, err := b.service.Lifecycle.Roster(ctx, id)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s, %d/%d seats taken\n\n", course.Code, course.Name, course.Enrolled, course.Capacity))
	if len(roster) == 0 {
		sb.WriteString("No active students")
		return sb.String(), nil
	}
	for _, r := range roster {
		grade := "-"
		if r.Grade != nil {
			grade = *r.Grade
		}
		sb.WriteString(fmt.Sprintf("%s %s (id %d) since %s, grade %s\n",
			r.StudentNo, r.StudentName, r.StudentID, r.EnrollDate.Format("2006-01-02"), grade))
	}
	return sb.String(), nil
}

func (b *Bot) handleGrade(ctx context.Context, args []string) (string, error) {
	if len(args) != 3 {
		return "", fmt.Errorf("usage: /grade <studentId> <courseId> <grade>")
	}
	studentID, courseID, err := parsePair(args[0], args[1])
	if err != nil {
		return "", err
	}

	if err := b.service.Lifecycle.Grade(ctx, studentID, courseID, args[2]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Student %d got %s in course %d", studentID, args[2], courseID), nil
}

func (b *Bot) handleComplete(ctx context.Context, args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("usage: /complete <studentId> <courseId>")
	}
	studentID, courseID, err := parsePair(args[0], args[1])
	if err != nil {
		return "", err
	}

	if err := b.service.Lifecycle.Complete(ctx, studentID, courseID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Student %d completed course %d", studentID, courseID), nil
}

func (b *Bot) handleUnlock(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: /unlock <username>")
	}
	b.service.Auth.Unlock(ctx, args[0])
	return fmt.Sprintf("Login lock cleared for %s", args[0]), nil
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", name, raw)
	}
	return id, nil
}

func parsePair(rawStudent, rawCourse string) (int64, int64, error) {
	studentID, err := parseID(rawStudent, "studentId")
	if err != nil {
		return 0, 0, err
	}
	courseID, err := parseID(rawCourse, "courseId")
	if err != nil {
		return 0, 0, err
	}
	return studentID, courseID, nil
}
