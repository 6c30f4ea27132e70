// Package httpapi exposes driving.TaskService as a JSON HTTP API.
//
// Routes:
//
//	POST   /tasks        create a task (201)
//	GET    /tasks        list tasks; query: status, dueDate, sortBy, sortOrder
//	GET    /tasks/{id}   fetch one task
//	PUT    /tasks/{id}   partially update a task
//	DELETE /tasks/{id}   delete a task (204)
//	GET    /healthz      liveness probe
//
// Validation failures are answered with 400 and {"errors":[{field,message}]},
// a missing task with 404 and {"error":"Task not found"}. Every other failure,
// including an event that could not be published after a committed write,
// is answered with 500 and no detail.
package httpapi
