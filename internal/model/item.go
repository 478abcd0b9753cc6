package model

import (
	"errors"
	"fmt"

	"github.com/BuzzLyutic/serverless-todo/internal/keys"
)

var ErrCorruptRecord = errors.New("corrupt record")

// Attribute names of the logical fields in a stored item.
const (
	AttrTaskID      = "taskId"
	AttrTitle       = "title"
	AttrDescription = "description"
	AttrDueDate     = "dueDate"
	AttrPriority    = "priority"
	AttrStatus      = "status"
	AttrCreatedAt   = "createdAt"
	AttrUpdatedAt   = "updatedAt"
)

var requiredAttrs = []string{
	AttrTaskID, AttrTitle, AttrDueDate, AttrPriority, AttrStatus, AttrCreatedAt, AttrUpdatedAt,
}

// ToItem flattens t into a store item for owner userID, deriving all four keys.
func ToItem(userID string, t Task) map[string]string {
	owner := keys.OwnerKey(userID)
	return map[string]string{
		keys.AttrPK:     owner,
		keys.AttrSK:     keys.CreationSortKey(t.TaskID, t.CreatedAt),
		keys.AttrGSI1PK: owner,
		keys.AttrGSI1SK: keys.DueSortKey(t.DueDate, string(t.Priority)),

		AttrTaskID:      t.TaskID,
		AttrTitle:       t.Title,
		AttrDescription: t.Description,
		AttrDueDate:     t.DueDate,
		AttrPriority:    string(t.Priority),
		AttrStatus:      string(t.Status),
		AttrCreatedAt:   t.CreatedAt,
		AttrUpdatedAt:   t.UpdatedAt,
	}
}

// FromItem drops the derived keys and rebuilds the Task. Items written before
// description existed decode with an empty description.
func FromItem(item map[string]string) (Task, error) {
	for _, name := range requiredAttrs {
		if _, ok := item[name]; !ok {
			return Task{}, fmt.Errorf("%w: missing attribute %q", ErrCorruptRecord, name)
		}
	}
	return Task{
		TaskID:      item[AttrTaskID],
		Title:       item[AttrTitle],
		Description: item[AttrDescription],
		DueDate:     item[AttrDueDate],
		Priority:    Priority(item[AttrPriority]),
		Status:      Status(item[AttrStatus]),
		CreatedAt:   item[AttrCreatedAt],
		UpdatedAt:   item[AttrUpdatedAt],
	}, nil
}
