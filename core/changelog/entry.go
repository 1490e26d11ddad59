package changelog

import (
	"time"

	"treediff/core/reconcile"

	"github.com/goccy/go-json"
)

// TableName is the table holding changelog entries.
const TableName = "changelog_entries"

// Entry is one persisted change. Inserts and deletes produce one entry each;
// an update produces one entry per changed field. Entries of the same
// operation share a Sequence.
type Entry struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	RunID      string    `gorm:"size:36;index" json:"run_id"`
	Sequence   int       `json:"sequence"`
	ChangeType string    `gorm:"size:16" json:"change_type"`
	EntityName string    `gorm:"size:128;index" json:"entity_name"`
	Keys       string    `gorm:"type:text" json:"keys"`
	FieldName  string    `gorm:"size:128" json:"field_name,omitempty"`
	OldValue   *string   `gorm:"type:text" json:"old_value,omitempty"`
	NewValue   *string   `gorm:"type:text" json:"new_value,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName overrides the gorm default.
func (Entry) TableName() string {
	return TableName
}

// KeyValues decodes the stored keys.
func (e Entry) KeyValues() ([]reconcile.KeyValue, error) {
	var keys []reconcile.KeyValue
	if e.Keys == "" {
		return keys, nil
	}
	if err := json.Unmarshal([]byte(e.Keys), &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// entriesFor flattens one operation into entries.
func entriesFor(runID string, seq int, op reconcile.Operation, newID func() string, at time.Time) ([]Entry, error) {
	keys, err := json.Marshal(op.Keys)
	if err != nil {
		return nil, err
	}

	base := Entry{
		RunID:      runID,
		Sequence:   seq,
		ChangeType: string(op.Type),
		EntityName: op.EntityName,
		Keys:       string(keys),
		CreatedAt:  at,
	}

	if op.Type != reconcile.OperationUpdate || len(op.Changes) == 0 {
		base.ID = newID()
		return []Entry{base}, nil
	}

	entries := make([]Entry, 0, len(op.Changes))
	for _, ch := range op.Changes {
		e := base
		e.ID = newID()
		e.FieldName = ch.Name
		e.OldValue = &ch.ExistingValue
		e.NewValue = &ch.NewValue
		entries = append(entries, e)
	}
	return entries, nil
}
