package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NodeID("web-1"), Node{Name: "web-1", Host: "10.0.0.1"}.ID())
	assert.Equal(t, NodeID("10.0.0.1"), Node{Host: "10.0.0.1"}.ID())
}

func TestNodeAddr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "10.0.0.1:22", Node{Host: "10.0.0.1"}.Addr())
	assert.Equal(t, "10.0.0.1:2222", Node{Host: "10.0.0.1", Port: 2222}.Addr())
}

func TestNodeValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		node    Node
		wantErr string
	}{
		{
			name: "valid",
			node: Node{Name: "web-1", Host: "10.0.0.1"},
		},
		{
			name:    "missing host",
			node:    Node{Name: "web-1"},
			wantErr: "host is required",
		},
		{
			name:    "invalid port",
			node:    Node{Host: "10.0.0.1", Port: 70000},
			wantErr: "invalid port",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.node.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestTimestampOrdering(t *testing.T) {
	t.Parallel()

	early := NewTimestamp("2024-01-01 00:00:01")
	late := NewTimestamp("2024-01-01 00:00:03")
	var undefined Timestamp

	assert.True(t, early.Before(late))
	assert.False(t, late.Before(early))
	assert.False(t, early.Before(early))

	// Undefined timestamps sort after every defined one.
	assert.True(t, late.Before(undefined))
	assert.False(t, undefined.Before(early))
	assert.False(t, undefined.Before(undefined))
}

func TestCollatedRecordString(t *testing.T) {
	t.Parallel()

	rec := CollatedRecord{Time: NewTimestamp("2024-01-01 00:00:01"), Node: "web-1", Text: "start"}
	assert.Equal(t, "2024-01-01 00:00:01 web-1 start", rec.String())

	anchorless := CollatedRecord{Node: "web-1", Text: "idle"}
	assert.Equal(t, "web-1 idle", anchorless.String())
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "success", Success().String())
	assert.Equal(t, "connect timeout", ConnectTimeout(ErrConnectTimeout).String())
	assert.Equal(t, "remote exited with code 2", RemoteNonZeroExit(2).String())
	assert.False(t, Success().Failed())
	assert.True(t, RemoteNonZeroExit(1).Failed())
}
