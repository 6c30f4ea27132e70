// Package amqp connects tasker to an AMQP 0-9-1 broker such as RabbitMQ
// using github.com/rabbitmq/amqp091-go.
//
// Every Connect dials a fresh connection and opens one channel on it.
// Closing the returned Channel closes both. Consumers use manual
// acknowledgement with a prefetch of one, so a message is only removed
// from its queue once the handler has settled it.
package amqp
