package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unithq/cqhub-go/internal/clock"
	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/roles"
)

// mockNotifyStore implements Store for testing
type mockNotifyStore struct {
	owners    []TokenOwner
	excluded  uuid.UUID
	removed   []TokenOwner
	listErr   error
	removeErr error
}

func (m *mockNotifyStore) ListApproverTokens(ctx context.Context, eligible []roles.Role, excludeUserID uuid.UUID) ([]TokenOwner, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.excluded = excludeUserID
	return m.owners, nil
}

func (m *mockNotifyStore) RemoveTokens(ctx context.Context, tokens []TokenOwner) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removed = append(m.removed, tokens...)
	return nil
}

// mockPushClient implements PushClient for testing
type mockPushClient struct {
	sentTokens []string
	sentTitle  string
	sentBody   string
	results    []SendResult
	sendErr    error
	calls      int
}

func (m *mockPushClient) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]SendResult, error) {
	m.calls++
	m.sentTokens = tokens
	m.sentTitle = title
	m.sentBody = body
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	if m.results != nil {
		return m.results, nil
	}
	results := make([]SendResult, len(tokens))
	for i, t := range tokens {
		results[i] = SendResult{Token: t}
	}
	return results, nil
}

func dispatcherFixture(t *testing.T, st Store, client PushClient) *Dispatcher {
	t.Helper()
	res, err := clock.NewResolver("UTC")
	require.NoError(t, err)
	res.Now = func() time.Time {
		ts, _ := time.Parse(time.RFC3339, "2026-02-06T18:30:00Z")
		return ts
	}
	return NewDispatcher(st, client, res, zap.NewNop())
}

func requestFixture() *models.LibertyRequest {
	ret := "22:00"
	notes := "back before formation"
	return &models.LibertyRequest{
		ID:            uuid.New(),
		RequesterID:   uuid.New(),
		RequesterName: "SPC Hall",
		Destination:   "Gym, PX",
		WeekendDate:   "2026-02-07",
		Companions:    []models.Companion{{ID: uuid.New(), Name: "PFC West", Rank: "PFC"}},
		ReturnTime:    &ret,
		Notes:         &notes,
		Status:        models.LibertyStatusPending,
	}
}

func TestNotifyExcludesRequesterFromRecipients(t *testing.T) {
	st := &mockNotifyStore{owners: []TokenOwner{
		{Token: "tok-1", OwnerID: uuid.New()},
	}}
	client := &mockPushClient{}
	d := dispatcherFixture(t, st, client)
	req := requestFixture()

	d.NotifyNewRequest(context.Background(), req)

	assert.Equal(t, req.RequesterID, st.excluded, "requester must be excluded from the token query")
	assert.Equal(t, []string{"tok-1"}, client.sentTokens)
}

func TestNotifyNoTokensIsNoOp(t *testing.T) {
	st := &mockNotifyStore{}
	client := &mockPushClient{}
	d := dispatcherFixture(t, st, client)

	d.NotifyNewRequest(context.Background(), requestFixture())
	assert.Equal(t, 0, client.calls)
}

func TestNotifyPayloadAggregatesDetails(t *testing.T) {
	st := &mockNotifyStore{owners: []TokenOwner{{Token: "tok-1", OwnerID: uuid.New()}}}
	client := &mockPushClient{}
	d := dispatcherFixture(t, st, client)

	d.NotifyNewRequest(context.Background(), requestFixture())

	assert.Contains(t, client.sentTitle, "SPC Hall")
	assert.Contains(t, client.sentTitle, "Feb 6 18:30")
	assert.Contains(t, client.sentBody, "Gym, PX")
	assert.Contains(t, client.sentBody, "22:00")
	assert.Contains(t, client.sentBody, "PFC West")
	assert.Contains(t, client.sentBody, "back before formation")
}

func TestNotifyOmitsAbsentFields(t *testing.T) {
	req := requestFixture()
	req.ReturnTime = nil
	req.Companions = nil
	req.Notes = nil

	body := buildBody(req)
	assert.Equal(t, "Destination: Gym, PX", body)
	assert.False(t, strings.Contains(body, "Return"))
}

func TestNotifyPrunesPermanentlyInvalidTokensOnly(t *testing.T) {
	ownerA, ownerB := uuid.New(), uuid.New()
	st := &mockNotifyStore{owners: []TokenOwner{
		{Token: "tok-dead", OwnerID: ownerA},
		{Token: "tok-flaky", OwnerID: ownerB},
		{Token: "tok-good", OwnerID: ownerB},
	}}
	client := &mockPushClient{results: []SendResult{
		{Token: "tok-dead", PermanentlyInvalid: true, Err: errors.New("unregistered")},
		{Token: "tok-flaky", Err: errors.New("unavailable")},
		{Token: "tok-good"},
	}}
	d := dispatcherFixture(t, st, client)

	d.NotifyNewRequest(context.Background(), requestFixture())

	require.Len(t, st.removed, 1, "only permanently invalid tokens are pruned")
	assert.Equal(t, "tok-dead", st.removed[0].Token)
	assert.Equal(t, ownerA, st.removed[0].OwnerID)
}

func TestNotifySwallowsAllFailures(t *testing.T) {
	req := requestFixture()

	// token lookup failure
	d := dispatcherFixture(t, &mockNotifyStore{listErr: errors.New("db down")}, &mockPushClient{})
	assert.NotPanics(t, func() { d.NotifyNewRequest(context.Background(), req) })

	// total delivery outage
	st := &mockNotifyStore{owners: []TokenOwner{{Token: "tok-1", OwnerID: uuid.New()}}}
	d = dispatcherFixture(t, st, &mockPushClient{sendErr: errors.New("fcm outage")})
	assert.NotPanics(t, func() { d.NotifyNewRequest(context.Background(), req) })
	assert.Empty(t, st.removed)

	// prune failure
	st = &mockNotifyStore{
		owners:    []TokenOwner{{Token: "tok-dead", OwnerID: uuid.New()}},
		removeErr: errors.New("db down"),
	}
	client := &mockPushClient{results: []SendResult{{Token: "tok-dead", PermanentlyInvalid: true}}}
	d = dispatcherFixture(t, st, client)
	assert.NotPanics(t, func() { d.NotifyNewRequest(context.Background(), req) })
}
