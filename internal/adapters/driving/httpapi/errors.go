package httpapi

import "errors"

// ErrMissingTaskService is returned when a server is created without a task service.
var ErrMissingTaskService = errors.New("httpapi: task service is required")
