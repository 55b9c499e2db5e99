package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// NormalizeJSON converts v into its canonical JSON-decoded form: maps become
// map[string]any, slices []any, numbers json.Number. Values read back from a
// store and freshly observed values are compared in this form.
func NormalizeJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON-encodable: %w", err)
	}
	return DecodeJSON(data)
}

// DecodeJSON decodes data into the canonical form used by NormalizeJSON.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return out, nil
}

// EqualJSON reports whether a and b are structurally equal JSON values. Object
// key order never matters; array order always does. Values that cannot be
// encoded are only equal to themselves under reflect.DeepEqual.
func EqualJSON(a, b any) bool {
	na, errA := NormalizeJSON(a)
	nb, errB := NormalizeJSON(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return reflect.DeepEqual(na, nb)
}

// FieldChange is the before/after pair of a single field.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// ChangeSummary lists the allow-listed fields that differ between two records.
type ChangeSummary struct {
	ChangedFields []string               `json:"changedFields"`
	Changes       map[string]FieldChange `json:"changes"`
}

// IsEmpty checks if the summary contains any changes.
func (s ChangeSummary) IsEmpty() bool {
	return len(s.ChangedFields) == 0
}

// SummarizeChanges diffs two records restricted to fields. Fields outside the
// allow-list are ignored. When before is absent (nil or not an object), every
// allow-listed field present in after is reported with From=nil. When after is
// absent the summary is empty. ChangedFields follows the order of fields.
func SummarizeChanges(before, after any, fields []string) ChangeSummary {
	summary := ChangeSummary{
		ChangedFields: []string{},
		Changes:       map[string]FieldChange{},
	}

	a := asRecord(after)
	if a == nil {
		return summary
	}
	b := asRecord(before)

	for _, f := range fields {
		to, inAfter := a[f]
		if b == nil {
			if !inAfter {
				continue
			}
			summary.ChangedFields = append(summary.ChangedFields, f)
			summary.Changes[f] = FieldChange{From: nil, To: to}
			continue
		}
		from := b[f]
		if reflect.DeepEqual(from, to) {
			continue
		}
		summary.ChangedFields = append(summary.ChangedFields, f)
		summary.Changes[f] = FieldChange{From: from, To: to}
	}

	return summary
}

func asRecord(v any) map[string]any {
	if v == nil {
		return nil
	}
	n, err := NormalizeJSON(v)
	if err != nil {
		return nil
	}
	m, _ := n.(map[string]any)
	return m
}
