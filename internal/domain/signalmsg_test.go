package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Signal
	}{
		{
			name: "join browser",
			raw:  `{"type":"join","role":"browser","projectId":"p1"}`,
			want: Join{Role: RoleBrowser, ProjectID: "p1"},
		},
		{
			name: "join bridge",
			raw:  `{"type":"join","role":"bridge","projectId":"p1"}`,
			want: Join{Role: RoleBridge, ProjectID: "p1"},
		},
		{
			name: "offer",
			raw:  `{"type":"offer","sdp":"v=0\r\n","projectId":"p1"}`,
			want: Offer{SDP: "v=0\r\n", ProjectID: "p1"},
		},
		{
			name: "answer",
			raw:  `{"type":"answer","sdp":"v=0","projectId":"p2"}`,
			want: Answer{SDP: "v=0", ProjectID: "p2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSignal([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSignalCandidate(t *testing.T) {
	raw := `{"type":"candidate","candidate":{"candidate":"candidate:1 1 udp 2122260223 10.0.0.2 50000 typ host","sdpMid":"0","sdpMLineIndex":0},"projectId":"p1"}`

	got, err := ParseSignal([]byte(raw))
	require.NoError(t, err)

	c, ok := got.(Candidate)
	require.True(t, ok)
	assert.Equal(t, "p1", c.ProjectID)
	assert.Contains(t, c.Candidate.Candidate, "typ host")
	require.NotNil(t, c.Candidate.SDPMid)
	assert.Equal(t, "0", *c.Candidate.SDPMid)
}

func TestParseSignalRejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"malformed json", `{"type":`, ErrInvalidSignal},
		{"missing project", `{"type":"offer","sdp":"v=0"}`, ErrInvalidSignal},
		{"bad role", `{"type":"join","role":"admin","projectId":"p1"}`, ErrInvalidSignal},
		{"candidate without payload", `{"type":"candidate","projectId":"p1"}`, ErrInvalidSignal},
		{"unknown type", `{"type":"leave","projectId":"p1"}`, ErrUnknownSignalType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSignal([]byte(tt.raw))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEncodeSignalWireShape(t *testing.T) {
	raw, err := EncodeSignal(Answer{SDP: "v=0", ProjectID: "p1"})
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, map[string]any{"type": "answer", "sdp": "v=0", "projectId": "p1"}, wire)

	raw, err = EncodeSignal(Join{Role: RoleBridge, ProjectID: "p1"})
	require.NoError(t, err)

	back, err := ParseSignal(raw)
	require.NoError(t, err)
	assert.Equal(t, Join{Role: RoleBridge, ProjectID: "p1"}, back)
}

func TestRoleOther(t *testing.T) {
	assert.Equal(t, RoleBridge, RoleBrowser.Other())
	assert.Equal(t, RoleBrowser, RoleBridge.Other())
	assert.False(t, Role("admin").Valid())
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Route
	}{
		{
			name: "join",
			raw:  `{"type":"join","role":"bridge","projectId":"p1"}`,
			want: Route{Type: SignalTypeJoin, Role: RoleBridge, ProjectID: "p1"},
		},
		{
			name: "string candidate",
			raw:  `{"type":"candidate","candidate":"candidate:1 1 udp 1 10.0.0.2 5000 typ host","projectId":"p1"}`,
			want: Route{Type: SignalTypeCandidate, ProjectID: "p1"},
		},
		{
			name: "null candidate",
			raw:  `{"type":"candidate","candidate":null,"projectId":"p1"}`,
			want: Route{Type: SignalTypeCandidate, ProjectID: "p1"},
		},
		{
			name: "object sdp",
			raw:  `{"type":"offer","sdp":{"sdp":"v=0"},"projectId":"p2"}`,
			want: Route{Type: SignalTypeOffer, ProjectID: "p2"},
		},
		{
			name: "role ignored outside join",
			raw:  `{"type":"answer","role":42,"projectId":"p1"}`,
			want: Route{Type: SignalTypeAnswer, ProjectID: "p1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoute([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRouteRejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"malformed json", `{"type":`, ErrInvalidSignal},
		{"missing project", `{"type":"offer","sdp":"v=0"}`, ErrInvalidSignal},
		{"join without role", `{"type":"join","projectId":"p1"}`, ErrInvalidSignal},
		{"join with bad role", `{"type":"join","role":"admin","projectId":"p1"}`, ErrInvalidSignal},
		{"unknown type", `{"type":"leave","projectId":"p1"}`, ErrUnknownSignalType},
		{"relay ack from a client", `{"type":"joined","role":"bridge","projectId":"p1"}`, ErrUnknownSignalType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoute([]byte(tt.raw))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
