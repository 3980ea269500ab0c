// Package reminder arms, cancels and inspects one-shot reminder jobs in the
// external job scheduler. Each task has at most one job, named after the
// task ID, which calls back into the reminder callback endpoint when it fires.
//
// Client methods never return transport errors: failures are logged and
// reported through outcome.Result, because a reminder that could not be armed
// must not fail the workflow that tried to arm it.
package reminder
