package liberty

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unithq/cqhub-go/internal/models"
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

func requestRow(companions, slots, joins []byte) *fakeRow {
	now := time.Now()
	return &fakeRow{vals: []any{
		uuid.New(),      // id
		uuid.New(),      // requester_id
		"SPC Hall",      // requester_name
		nil,             // requester_email
		[]string{"gym"}, // locations
		nil,             // custom_location
		"Gym",           // destination
		"2026-02-07",    // weekend_date
		companions,      // companions
		false,           // is_driver
		0,               // passenger_capacity
		slots,           // time_slots
		joins,           // join_requests
		nil,             // return_time
		nil,             // notes
		"pending",       // status
		nil,             // approved_by
		nil,             // approver_initials
		nil,             // rejected_by
		nil,             // resolved_at
		nil,             // cancel_reason
		now,             // created_at
		now,             // updated_at
	}}
}

func TestScanRequestDecodesJSONColumns(t *testing.T) {
	slots, err := json.Marshal([]models.LibertyTimeSlot{
		{Date: "2026-02-07", StartTime: "09:00", EndTime: "17:00"},
	})
	require.NoError(t, err)

	req, err := scanRequest(requestRow(nil, slots, nil))
	require.NoError(t, err)
	require.Len(t, req.TimeSlots, 1)
	assert.Equal(t, "09:00", req.TimeSlots[0].StartTime)
	assert.Empty(t, req.Companions)
}

func TestScanRequestRejectsCorruptJSONColumns(t *testing.T) {
	_, err := scanRequest(requestRow([]byte("{not json"), nil, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "companions")

	_, err = scanRequest(requestRow(nil, []byte("{}"), nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time slots")

	_, err = scanRequest(requestRow(nil, nil, []byte("not json")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "join requests")
}
