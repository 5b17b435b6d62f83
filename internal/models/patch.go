package models

import (
	"encoding/json"
	"time"
)

// Field tracks JSON presence for partial updates. A field that never appears
// in the request body keeps Set == false; an explicit null arrives with
// Set == true and Value == nil, which clears the column. This is what lets
// PATCH distinguish "leave untouched" from "clear this field".
type Field[T any] struct {
	Set   bool
	Value *T
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// Some returns a present field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null returns a present field carrying an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// TaskPatch is a partial task update. Owner and created_at are not
// representable here and therefore can never be mutated through a patch.
type TaskPatch struct {
	Title       Field[string]    `json:"title"`
	Description Field[string]    `json:"description"`
	Assignee    Field[string]    `json:"assignee"`
	Status      Field[Status]    `json:"status"`
	StartDate   Field[Date]      `json:"start_date"`
	DueDate     Field[Date]      `json:"due_date"`
	CompletedAt Field[time.Time] `json:"completed_at"`
}

// Empty reports whether the patch supplies no fields at all.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Assignee.Set &&
		!p.Status.Set && !p.StartDate.Set && !p.DueDate.Set && !p.CompletedAt.Set
}

// Apply writes the supplied fields onto t, clearing nullable columns where
// the patch carries an explicit null. Title and status are not nullable;
// a null for either is ignored here and rejected earlier by validation.
func (p TaskPatch) Apply(t *Task) {
	if p.Title.Set && p.Title.Value != nil {
		t.Title = *p.Title.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Assignee.Set {
		t.Assignee = p.Assignee.Value
	}
	if p.Status.Set && p.Status.Value != nil {
		t.Status = *p.Status.Value
	}
	if p.StartDate.Set {
		t.StartDate = p.StartDate.Value
	}
	if p.DueDate.Set {
		t.DueDate = p.DueDate.Value
	}
	if p.CompletedAt.Set {
		t.CompletedAt = p.CompletedAt.Value
	}
}
