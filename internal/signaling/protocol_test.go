package signaling

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodeJoinFailure verifies join replies decode status and reason.
func TestDecodeJoinFailure(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"user_join_transmission","status":"failed","reason":"Incorrect password"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeJoinReply, msg.Type)
	assert.Equal(t, StatusFailed, msg.Status)
	assert.Equal(t, "Incorrect password", msg.Reason)
}

// TestDecodeRejectsMissingType verifies messages without a type are rejected.
func TestDecodeRejectsMissingType(t *testing.T) {
	_, err := Decode([]byte(`{"user_id":"x"}`))
	require.ErrorIs(t, err, ErrMissingType)

	_, err = Decode([]byte(`{`))
	require.Error(t, err)
}

// TestJoinCarriesCredential verifies join carries the id@password credential.
func TestJoinCarriesCredential(t *testing.T) {
	data, err := Encode(Join("123456", "987654", "secret"))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{
		"type":            "join_transmission",
		"user_id":         "123456",
		"transmission_id": "987654@secret",
	}, got)
}

// TestAnswerAndCandidateAddressRemote verifies answers and candidates address the remote user.
func TestAnswerAndCandidateAddressRemote(t *testing.T) {
	a := Answer("987654", "123456", "v=0")
	assert.Equal(t, "987654", a.RemoteUserID)
	assert.Equal(t, "v=0", a.SDP)

	c := Candidate("987654", "123456", "candidate:1 1 udp 1 1.2.3.4 5 typ host", "0")
	data, err := Encode(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type":"new_candidate_mid",
		"transmission_id":"987654",
		"user_id":"123456",
		"remote_user_id":"987654",
		"candidate":"candidate:1 1 udp 1 1.2.3.4 5 typ host",
		"mid":"0"
	}`, string(data))
}

// TestPingCarriesTimestamp verifies pings carry their send time.
func TestPingCarriesTimestamp(t *testing.T) {
	data, err := Encode(Ping(1700000000123))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping","ts":1700000000123}`, string(data))
}

// TestClientID verifies client ids drop the server suffix.
func TestClientID(t *testing.T) {
	assert.Equal(t, "123456", ClientID("123456@web"))
	assert.Equal(t, "123456", ClientID("123456"))
	assert.Equal(t, "", ClientID(""))
}

// TestValidateURL verifies only ws and wss URLs with a host are accepted.
func TestValidateURL(t *testing.T) {
	require.NoError(t, ValidateURL("wss://signal.example.com:9099"))
	require.NoError(t, ValidateURL("ws://127.0.0.1:9099/ws"))
	require.Error(t, ValidateURL("https://signal.example.com"))
	require.Error(t, ValidateURL("ws://"))
}
