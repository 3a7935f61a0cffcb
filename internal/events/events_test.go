package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	event, err := Decode([]byte(`{"action":"block_request.approved","actorId":"u1","actorType":"admin","resourceId":"r1","timestamp":1760000000}`))
	require.NoError(t, err)
	assert.Equal(t, ActionRequestApproved, event.Action)
	assert.Equal(t, "r1", event.ResourceID)
	assert.Equal(t, int64(1760000000), event.Timestamp)

	_, err = Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = NopNotifier{}
	assert.NoError(t, n.Notify(context.Background(), AuditEvent{Action: ActionSchoolCreated}))
	n.Close()
}
