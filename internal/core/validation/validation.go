// Package validation checks raw task fields and query parameters before they
// reach the task service.
//
// Every function is pure: it returns a normalised value or a
// *domain.ValidationError listing each offending field, and never touches a
// store or broker.
package validation

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/tasker/internal/core/domain"
)

// Violation messages.
const (
	msgTitleRequired = "Title is required"
	msgTitleTooLong  = "Title must be at most 255 characters"
	msgInvalidValue  = "Invalid value"
	msgInvalidDate   = "Must be a valid ISO 8601 date"
	msgInvalidTaskID = "Invalid task ID"
)

// errInvalidDate is returned by ParseDate for unparseable input.
var errInvalidDate = errors.New("invalid ISO 8601 date")

// dateLayouts are tried in order by ParseDate. Layouts without an offset
// are interpreted as UTC; fractional seconds are accepted after the seconds
// field of any layout.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate parses an ISO 8601 calendar date or date-time and normalises it
// to a UTC instant. A bare date becomes midnight UTC on that day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errInvalidDate
}

// TaskID checks that id is a canonical UUID and returns it lower-cased.
func TaskID(id string) (string, error) {
	if len(id) != 36 {
		return "", domain.NewValidationError("id", msgInvalidTaskID)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", domain.NewValidationError("id", msgInvalidTaskID)
	}
	return parsed.String(), nil
}

// CreateTask validates a creation request. Title is required; every other
// field is optional.
func CreateTask(in domain.TaskInput) (domain.NewTask, error) {
	var verr domain.ValidationError
	var out domain.NewTask

	if in.Title == nil {
		verr.Add("title", msgTitleRequired)
	} else if title(&verr, *in.Title) {
		out.Title = *in.Title
	}
	if in.Description != nil {
		out.Description = *in.Description
	}
	if in.DueDate != nil {
		if due, ok := dueDate(&verr, *in.DueDate); ok {
			out.DueDate = &due
		}
	}
	if in.Status != nil {
		if st, ok := status(&verr, *in.Status); ok {
			out.Status = st
		}
	}

	if err := verr.OrNil(); err != nil {
		return domain.NewTask{}, err
	}
	return out, nil
}

// UpdateTask validates a partial update. Supplied fields follow the same
// rules as CreateTask; a supplied title must still be non-empty.
func UpdateTask(in domain.TaskInput) (domain.TaskPatch, error) {
	var verr domain.ValidationError
	var out domain.TaskPatch

	if in.Title != nil && title(&verr, *in.Title) {
		t := *in.Title
		out.Title = &t
	}
	if in.Description != nil {
		desc := *in.Description
		out.Description = &desc
	}
	if in.DueDate != nil {
		if due, ok := dueDate(&verr, *in.DueDate); ok {
			out.DueDate = &due
		}
	}
	if in.Status != nil {
		if st, ok := status(&verr, *in.Status); ok {
			out.Status = &st
		}
	}

	if err := verr.OrNil(); err != nil {
		return domain.TaskPatch{}, err
	}
	return out, nil
}

// title records a violation for a blank or over-long title.
func title(verr *domain.ValidationError, s string) bool {
	switch {
	case strings.TrimSpace(s) == "":
		verr.Add("title", msgTitleRequired)
		return false
	case utf8.RuneCountInString(s) > domain.MaxTitleLength:
		verr.Add("title", msgTitleTooLong)
		return false
	}
	return true
}

// ListQuery validates list parameters. An unrecognised sortBy falls back to
// the default sort (dueDate ascending) instead of failing.
func ListQuery(in domain.ListInput) (domain.ListQuery, error) {
	var verr domain.ValidationError
	out := domain.DefaultListQuery()

	if in.Status != "" {
		if st, ok := status(&verr, in.Status); ok {
			out.Status = &st
		}
	}
	if in.DueDate != "" {
		if due, ok := dueDate(&verr, in.DueDate); ok {
			out.DueDate = &due
		}
	}
	if in.SortOrder != "" {
		order := domain.SortOrder(in.SortOrder)
		if order.IsValid() {
			out.SortOrder = order
		} else {
			verr.Add("sortOrder", msgInvalidValue)
		}
	}
	if in.SortBy != "" {
		field := domain.SortField(in.SortBy)
		if field.IsValid() {
			out.SortBy = field
		} else {
			out.SortBy = domain.SortByDueDate
			out.SortOrder = domain.SortAsc
		}
	}

	if err := verr.OrNil(); err != nil {
		return domain.ListQuery{}, err
	}
	return out, nil
}

// TypeViolation returns the violation reported when field was supplied with
// a value that is not a string.
func TypeViolation(field string) domain.Violation {
	if field == "title" {
		return domain.Violation{Field: field, Message: msgTitleRequired}
	}
	return domain.Violation{Field: field, Message: msgInvalidValue}
}

func dueDate(verr *domain.ValidationError, raw string) (time.Time, bool) {
	due, err := ParseDate(raw)
	if err != nil {
		verr.Add("dueDate", msgInvalidDate)
		return time.Time{}, false
	}
	return due, true
}

func status(verr *domain.ValidationError, raw string) (domain.TaskStatus, bool) {
	st := domain.TaskStatus(raw)
	if !st.IsValid() {
		verr.Add("status", msgInvalidValue)
		return "", false
	}
	return st, true
}
