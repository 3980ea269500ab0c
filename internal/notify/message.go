package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/taskpulse/internal/outcome"
)

// DueLayout formats due times in reminder bodies.
const DueLayout = "January 02, 2006 at 03:04 PM"

// UntitledTask replaces a missing task title.
const UntitledTask = "Untitled Task"

// Message is a plain-text notification to one recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Gateway delivers messages. Implementations report the result of a single
// attempt and never retry.
type Gateway interface {
	Send(ctx context.Context, msg Message) outcome.Result
}

// FormatReminder builds the subject and body of a reminder for a task.
// dueAt is rendered in UTC; a nil dueAt produces the generic body.
func FormatReminder(title string, dueAt *time.Time) (subject, body string) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = UntitledTask
	}

	subject = "Reminder: " + title

	var b strings.Builder
	b.WriteString("Hello,\n\n")
	b.WriteString("This is a reminder about your task:\n\n")
	fmt.Fprintf(&b, "Task: %s\n", title)
	if dueAt != nil {
		fmt.Fprintf(&b, "Due: %s\n\n", dueAt.UTC().Format(DueLayout))
		b.WriteString("Please complete this task before the deadline.\n")
	}
	b.WriteString("\nBest regards,\nTaskpulse\n")

	return subject, b.String()
}
