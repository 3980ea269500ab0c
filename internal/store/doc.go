// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from the
// workers, so that recurrence and notification logic can be tested without a
// database.
package store
