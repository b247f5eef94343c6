package domain

import (
	"bytes"
	"encoding/json"
)

// Field is a tri-state value used by partial updates. The zero value is
// absent; a field can also be explicitly null or carry a value.
type Field[T any] struct {
	present bool
	null    bool
	value   T
}

// Set returns a present field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{present: true, value: v}
}

// Null returns a present field explicitly set to null.
func Null[T any]() Field[T] {
	return Field[T]{present: true, null: true}
}

// Present reports whether the field was supplied at all.
func (f Field[T]) Present() bool { return f.present }

// IsNull reports whether the field was supplied as an explicit null.
func (f Field[T]) IsNull() bool { return f.present && f.null }

// Get returns the value when the field is present and not null.
func (f Field[T]) Get() (T, bool) {
	if !f.present || f.null {
		var zero T
		return zero, false
	}
	return f.value, true
}

// Ptr returns nil for null, a pointer to the value otherwise. Only meaningful
// when Present is true.
func (f Field[T]) Ptr() *T {
	if f.null || !f.present {
		return nil
	}
	v := f.value
	return &v
}

// UnmarshalJSON is only invoked for keys that appear in the document, which
// is what separates absent from null.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.null = true
		var zero T
		f.value = zero
		return nil
	}
	f.null = false
	return json.Unmarshal(data, &f.value)
}

// TicketPatch describes a partial ticket update. UpdatedByID is always
// written and does not count as a change.
type TicketPatch struct {
	Title       Field[string]
	Description Field[string]
	Priority    Field[TicketPriority]
	Status      Field[TicketStatus]
	AssigneeID  Field[string]
	UpdatedByID string
}

// Empty reports whether the patch carries no mutable field.
func (p TicketPatch) Empty() bool {
	return !p.Title.Present() &&
		!p.Description.Present() &&
		!p.Priority.Present() &&
		!p.Status.Present() &&
		!p.AssigneeID.Present()
}

// Apply writes the present fields of p onto t.
func (p TicketPatch) Apply(t *Ticket) {
	if v, ok := p.Title.Get(); ok {
		t.Title = v
	}
	if v, ok := p.Description.Get(); ok {
		t.Description = v
	}
	if v, ok := p.Priority.Get(); ok {
		t.Priority = v
	}
	if v, ok := p.Status.Get(); ok {
		t.Status = v
	}
	if p.AssigneeID.Present() {
		t.AssigneeID = p.AssigneeID.Ptr()
	}
	t.UpdatedByID = p.UpdatedByID
}
