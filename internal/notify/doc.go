// Package notify implements the notification worker, which turns
// reminder.triggered events into messages delivered through a Gateway.
package notify
