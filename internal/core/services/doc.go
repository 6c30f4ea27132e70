// Package services implements the driving port interfaces.
//
// TaskService owns the task lifecycle and hands events to an EventPublisher
// once the store write commits. EventConsumer and Notifier sit on the other
// side of the broker. SettingsService turns the config store into a
// domain.Config.
package services
