// Package consumer runs the polling loop shared by the pipeline workers.
//
// A Consumer fetches batches of raw messages from a Source, decodes each into
// an events.Envelope, and hands it to an events.EventHandler. Successfully
// handled messages are committed. Failed messages are left uncommitted so the
// bus redelivers them, until they are classified as Permanent or exceed the
// attempt limit, at which point they are recorded as dead letters and committed.
package consumer
