// Package gateway provides the notification gateway drivers: a
// SendGrid-compatible HTTP API, AWS SES, and a log-only driver for
// environments without delivery credentials.
package gateway
