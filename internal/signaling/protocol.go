// Package signaling speaks the session-setup protocol with the signaling server.
package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Message types exchanged with the signaling server.
const (
	TypeLogin     = "login"
	TypeJoin      = "join_transmission"
	TypeJoinReply = "user_join_transmission"
	TypeLeave     = "user_leave_transmission"
	TypeOffer     = "offer"
	TypeAnswer    = "answer"
	TypeCandidate = "new_candidate_mid"
	TypePing      = "ping"
	TypePong      = "pong"
)

// StatusFailed marks a rejected join.
const StatusFailed = "failed"

// ErrMissingType is returned for messages without a type.
var ErrMissingType = errors.New("signaling message without type")

// Message is a signaling payload. Only the fields relevant to Type are set.
type Message struct {
	Type           string `json:"type"`
	UserID         string `json:"user_id,omitempty"`
	TransmissionID string `json:"transmission_id,omitempty"`
	RemoteUserID   string `json:"remote_user_id,omitempty"`
	SDP            string `json:"sdp,omitempty"`
	Candidate      string `json:"candidate,omitempty"`
	Mid            string `json:"mid,omitempty"`
	Status         string `json:"status,omitempty"`
	Reason         string `json:"reason,omitempty"`
	TS             int64  `json:"ts,omitempty"`
}

// Decode parses a signaling message.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode signaling message: %w", err)
	}
	if msg.Type == "" {
		return Message{}, ErrMissingType
	}
	return msg, nil
}

// Encode serializes a signaling message.
func Encode(msg Message) ([]byte, error) {
	if msg.Type == "" {
		return nil, ErrMissingType
	}
	return json.Marshal(msg)
}

// ClientID extracts the client id from a login reply user id ("<id>@<suffix>").
func ClientID(userID string) string {
	id, _, _ := strings.Cut(userID, "@")
	return id
}

// Credential joins a transmission id and its password.
func Credential(id, password string) string {
	return id + "@" + password
}

// Login announces the client tag.
func Login(tag string) Message {
	return Message{Type: TypeLogin, UserID: tag}
}

// Join asks to join a remote host's transmission.
func Join(clientID, transmissionID, password string) Message {
	return Message{Type: TypeJoin, UserID: clientID, TransmissionID: Credential(transmissionID, password)}
}

// Leave leaves a transmission.
func Leave(clientID, transmissionID string) Message {
	return Message{Type: TypeLeave, UserID: clientID, TransmissionID: transmissionID}
}

// Answer carries the local SDP answer.
func Answer(transmissionID, clientID, sdp string) Message {
	return Message{
		Type:           TypeAnswer,
		TransmissionID: transmissionID,
		UserID:         clientID,
		RemoteUserID:   transmissionID,
		SDP:            sdp,
	}
}

// Candidate carries one local ICE candidate.
func Candidate(transmissionID, clientID, candidate, mid string) Message {
	return Message{
		Type:           TypeCandidate,
		TransmissionID: transmissionID,
		UserID:         clientID,
		RemoteUserID:   transmissionID,
		Candidate:      candidate,
		Mid:            mid,
	}
}

// Ping is a liveness probe stamped with ts in milliseconds.
func Ping(ts int64) Message {
	return Message{Type: TypePing, TS: ts}
}
