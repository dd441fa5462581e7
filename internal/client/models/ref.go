package models

import (
	"bytes"
	"encoding/json"
)

// Ref is either a populated record or a bare reference to one. Talent
// collections arrive in both shapes depending on whether the backend
// populated the relation.
type Ref[T Entity] struct {
	id    string
	value *T
}

// Reference builds an unpopulated Ref.
func Reference[T Entity](id string) Ref[T] {
	return Ref[T]{id: id}
}

// Populated builds a Ref holding the full record.
func Populated[T Entity](v T) Ref[T] {
	return Ref[T]{value: &v}
}

func (r Ref[T]) IsPopulated() bool { return r.value != nil }

// ID returns the referenced identifier in either shape.
func (r Ref[T]) ID() string {
	if r.value != nil {
		return (*r.value).EntityID()
	}
	return r.id
}

// Resolve returns the populated record, if any.
func (r Ref[T]) Resolve() (T, bool) {
	if r.value == nil {
		var zero T
		return zero, false
	}
	return *r.value, true
}

func (r *Ref[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = Ref[T]{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = Reference[T](id)
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Populated(v)
	return nil
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.value != nil {
		return json.Marshal(*r.value)
	}
	return json.Marshal(r.id)
}

// Labels renders each ref with label when populated and falls back to the
// bare identifier otherwise.
func Labels[T Entity](refs []Ref[T], label func(T) string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if v, ok := r.Resolve(); ok {
			out = append(out, label(v))
			continue
		}
		if r.id != "" {
			out = append(out, r.id)
		}
	}
	return out
}
