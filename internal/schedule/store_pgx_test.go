package schedule

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow feeds canned column values into a scan function. A nil value leaves
// the destination at its zero value, standing in for a SQL NULL.
type fakeRow struct {
	vals []any
}

func (r *fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		if i >= len(r.vals) || r.vals[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

func entryRow(shift1, shift2 []byte) *fakeRow {
	now := time.Now()
	return &fakeRow{vals: []any{
		uuid.New(),
		"2026-01-24",
		"Saturday",
		shift1,
		shift2,
		false,
		"scheduled",
		now,
		now,
	}}
}

func TestScanEntryDecodesShifts(t *testing.T) {
	slot, err := json.Marshal(map[string]any{
		"slot1": map[string]any{"person_id": uuid.New(), "person_name": "SPC Hall"},
	})
	require.NoError(t, err)

	entry, err := scanEntry(entryRow(slot, nil))
	require.NoError(t, err)
	require.NotNil(t, entry.Shift1.Slot1.PersonName)
	assert.Equal(t, "SPC Hall", *entry.Shift1.Slot1.PersonName)
	assert.Nil(t, entry.Shift2.Slot1.PersonID)
}

func TestScanEntryRejectsCorruptShiftJSON(t *testing.T) {
	_, err := scanEntry(entryRow([]byte("{not json"), nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shift1")

	_, err = scanEntry(entryRow(nil, []byte("[]")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shift2")
}
