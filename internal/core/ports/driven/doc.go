// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - TaskStore: Task persistence (SQLite, PostgreSQL or memory)
//   - Broker: Connections to the message broker (AMQP or memory)
//   - EventPublisher: Announces task events (implemented in core over Broker)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - ConfigWatcher: Change notification for file-backed configuration.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
