package model

import (
	"bytes"
	"encoding/json"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Task is the external view of a todo; storage keys never appear here.
type Task struct {
	TaskID      string   `json:"taskId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"dueDate"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

type CreateTask struct {
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate" validate:"required,datetime=2006-01-02"`
	Priority    string `json:"priority" validate:"required,oneof=HIGH MEDIUM LOW"`
}

// ChangeSet holds only the fields a caller wants to change; nil means untouched.
type ChangeSet struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Status      *Status   `json:"status,omitempty"`

	// Null lists fields sent as explicit JSON null. They are neither
	// changes nor absent, and fail validation.
	Null []string `json:"-"`
}

func (c ChangeSet) Empty() bool {
	return c.Title == nil && c.Description == nil && c.DueDate == nil && c.Priority == nil && c.Status == nil &&
		len(c.Null) == 0
}

func (c *ChangeSet) UnmarshalJSON(data []byte) error {
	type plain ChangeSet
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = ChangeSet(p)
	c.Null = nil
	for _, name := range []string{AttrTitle, AttrDescription, AttrDueDate, AttrPriority, AttrStatus} {
		if v, ok := raw[name]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			c.Null = append(c.Null, name)
		}
	}
	return nil
}

type SortBy string

const (
	SortByDueDate   SortBy = "dueDate"
	SortByCreatedAt SortBy = "createdAt"
)

type TaskFilter struct {
	Status *Status
}

type ListParams struct {
	Filter TaskFilter
	Limit  int // 0 selects the default page size
	SortBy SortBy
	Cursor string
}

type Page struct {
	Items      []Task `json:"items"`
	Count      int    `json:"count"`
	NextCursor string `json:"nextCursor,omitempty"`
}
