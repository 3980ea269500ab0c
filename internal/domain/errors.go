package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyTaskTitle is returned when a task has no title.
	ErrEmptyTaskTitle = fmt.Errorf("%w: task title cannot be empty", ErrValidation)

	// ErrEmptyTaskUserID is returned when a task has no owner.
	ErrEmptyTaskUserID = fmt.Errorf("%w: task user ID cannot be empty", ErrValidation)

	// ErrInvalidPriority is returned when a priority is not one of low, medium, high.
	ErrInvalidPriority = fmt.Errorf("%w: invalid task priority", ErrValidation)

	// ErrInvalidRecurrence is returned when a recurrence rule is not recognized.
	ErrInvalidRecurrence = fmt.Errorf("%w: invalid recurrence rule", ErrValidation)

	// ErrNegativeReminderLead is returned when the reminder lead time is negative.
	ErrNegativeReminderLead = fmt.Errorf("%w: reminder lead minutes cannot be negative", ErrValidation)

	// ErrNotRecurring is returned when a next occurrence is requested for a
	// task whose recurrence is none.
	ErrNotRecurring = errors.New("task does not recur")

	// ErrMissingDueDate is returned when a recurring task has no due date and
	// therefore cannot produce a next occurrence.
	ErrMissingDueDate = errors.New("recurring task has no due date")

	// ErrRecurrenceEnded is returned when the next occurrence would fall after
	// the recurrence end date.
	ErrRecurrenceEnded = errors.New("recurrence end date reached")
)
