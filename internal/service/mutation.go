package service

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/BuzzLyutic/serverless-todo/internal/keys"
	"github.com/BuzzLyutic/serverless-todo/internal/model"
	"github.com/BuzzLyutic/serverless-todo/internal/repo"
)

func validateChangeSet(v *validator.Validate, cs model.ChangeSet) error {
	if cs.Empty() {
		return ErrNoFieldsToUpdate
	}
	if len(cs.Null) > 0 {
		return &FieldError{Kind: ErrInvalidField, Field: cs.Null[0], Reason: "must not be null"}
	}
	if cs.Title != nil && v.Var(*cs.Title, "notblank") != nil {
		return &FieldError{Kind: ErrInvalidField, Field: model.AttrTitle, Reason: "must not be empty"}
	}
	if cs.DueDate != nil && v.Var(*cs.DueDate, "required,datetime="+keys.DateLayout) != nil {
		return &FieldError{Kind: ErrInvalidField, Field: model.AttrDueDate, Reason: "must be a date in YYYY-MM-DD format"}
	}
	if cs.Priority != nil && !cs.Priority.Valid() {
		return &FieldError{Kind: ErrInvalidField, Field: model.AttrPriority, Reason: "must be one of HIGH, MEDIUM, LOW"}
	}
	if cs.Status != nil && !cs.Status.Valid() {
		return &FieldError{Kind: ErrInvalidField, Field: model.AttrStatus, Reason: "must be one of PENDING, COMPLETED"}
	}
	return nil
}

// buildMutation compiles cs into assignments for the row at key. Only the
// changed attributes are written, plus updatedAt and, when dueDate or
// priority changes, GSI1SK re-derived from the new and existing values.
func buildMutation(v *validator.Validate, key repo.Key, existing model.Task, cs model.ChangeSet, now time.Time) (repo.Mutation, error) {
	if err := validateChangeSet(v, cs); err != nil {
		return repo.Mutation{}, err
	}

	set := make(map[string]string, 7)
	if cs.Title != nil {
		set[model.AttrTitle] = *cs.Title
	}
	if cs.Description != nil {
		set[model.AttrDescription] = *cs.Description
	}
	if cs.Status != nil {
		set[model.AttrStatus] = string(*cs.Status)
	}

	if cs.DueDate != nil || cs.Priority != nil {
		dueDate, priority := existing.DueDate, existing.Priority
		if cs.DueDate != nil {
			dueDate = *cs.DueDate
			set[model.AttrDueDate] = dueDate
		}
		if cs.Priority != nil {
			priority = *cs.Priority
			set[model.AttrPriority] = string(priority)
		}
		set[keys.AttrGSI1SK] = keys.DueSortKey(dueDate, string(priority))
	}

	// updatedAt never precedes createdAt, even under clock skew
	if created, err := time.Parse(time.RFC3339Nano, existing.CreatedAt); err == nil && now.Before(created) {
		now = created
	}
	set[model.AttrUpdatedAt] = keys.FormatTime(now)

	return repo.Mutation{
		Key: repo.Key{keys.AttrPK: key[keys.AttrPK], keys.AttrSK: key[keys.AttrSK]},
		Set: set,
	}, nil
}
