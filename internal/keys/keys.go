// Package keys encodes task identity into the single-table key schema.
//
// Rows live in one table keyed by PK/SK with one global secondary index
// (GSI1) keyed by GSI1PK/GSI1SK:
//
//	PK     = USER#<userId>
//	SK     = TODO#<createdAt>#<taskId>
//	GSI1PK = USER#<userId>
//	GSI1SK = DUE#<dueDate>#<priority>
package keys

import (
	"strings"
	"time"
)

// Attribute and index names of the table.
const (
	AttrPK     = "PK"
	AttrSK     = "SK"
	AttrGSI1PK = "GSI1PK"
	AttrGSI1SK = "GSI1SK"

	IndexGSI1 = "GSI1"
)

const (
	ownerPrefix = "USER#"
	todoPrefix  = "TODO#"
	duePrefix   = "DUE#"
	sep         = "#"
)

// TimeLayout is fixed width so that string order equals time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// DateLayout is the accepted due date format.
const DateLayout = "2006-01-02"

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// OwnerKey is the partition key shared by the table and GSI1.
func OwnerKey(userID string) string {
	return ownerPrefix + userID
}

// CreationSortKey orders an owner's rows by creation time. The task id is
// appended only to keep keys unique.
func CreationSortKey(taskID, createdAt string) string {
	return todoPrefix + createdAt + sep + taskID
}

// DueSortKey orders an owner's rows by due date with priority as a plain
// string tiebreak (HIGH < LOW < MEDIUM).
func DueSortKey(dueDate, priority string) string {
	return duePrefix + dueDate + sep + priority
}

// IsKeyAttr reports whether name is one of the four derived key attributes.
func IsKeyAttr(name string) bool {
	switch name {
	case AttrPK, AttrSK, AttrGSI1PK, AttrGSI1SK:
		return true
	}
	return false
}

// OwnerFromKey returns the user id encoded in an owner key.
func OwnerFromKey(pk string) (string, bool) {
	if !strings.HasPrefix(pk, ownerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(pk, ownerPrefix), true
}
