// Package api handles the inbound HTTP surface of taskpulse: the reminder
// callback that the job scheduler invokes and the health endpoints served
// by every process. Handlers translate HTTP concerns into event publishing
// and contain no business logic of their own.
package api
