// Package pubsub implements the HTTP bus driver: envelopes are published to
// and polled from a pub/sub sidecar over its HTTP API.
package pubsub
