// Package events defines the envelope that every message on the bus is
// wrapped in, the payload shapes carried inside it, and the publishing and
// dispatch machinery built around it.
//
// The primary components are:
// - Envelope: the immutable, self-describing bus message
// - TaskData and ReminderData: the payloads carried in Envelope.Data
// - Publisher: stamps and sends envelopes through a Transport
// - Router: dispatches a received envelope to the EventHandler registered for its type
package events
