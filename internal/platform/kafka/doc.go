// Package kafka implements the kafka bus driver on top of segmentio/kafka-go.
//
// Each bus topic maps to a Kafka topic and each worker reads through its own
// consumer group. Offsets are committed manually, after an event has been
// handled or dead-lettered.
package kafka
