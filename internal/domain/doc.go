// Package domain contains the core entities of the task automation pipeline:
// tasks and their recurrence rules, and the dead letters recorded when an
// event cannot be processed. It is independent of any storage or transport.
package domain
