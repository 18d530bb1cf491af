// Package stats holds the statistics sinks of the queues. They are diagnostic
// only: a queue behaves the same whether or not a sink is attached.
package stats
