// Package session runs the connection state machine between the signaling
// server, the remote host and the local input layer.
package session

import (
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/frudas24/deskpilot/internal/control"
	"github.com/frudas24/deskpilot/internal/display"
	"github.com/frudas24/deskpilot/internal/eventloop"
	"github.com/frudas24/deskpilot/internal/notify"
	"github.com/frudas24/deskpilot/internal/signaling"
	"github.com/frudas24/deskpilot/internal/transport"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotReady is returned by Connect before the login acknowledgment.
	ErrNotReady = errors.New("signaling not ready")
	// ErrNoTransmission is returned by Connect without a transmission id.
	ErrNoTransmission = errors.New("transmission id required")
)

const (
	kindHeartbeat eventloop.Kind = "heartbeat"
	kindJoinHold  eventloop.Kind = "join-hold"
	kindRestart   eventloop.Kind = "restart"
)

var (
	pingKey     = eventloop.Key{Kind: kindHeartbeat, ID: "ping"}
	deadlineKey = eventloop.Key{Kind: kindHeartbeat, ID: "deadline"}
	joinHoldKey = eventloop.Key{Kind: kindJoinHold}
	restartKey  = eventloop.Key{Kind: kindRestart}
)

// Config holds the session timings and identity.
type Config struct {
	ClientTag         string
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	ReconnectDelay    time.Duration
	JoinErrorHold     time.Duration
}

// DefaultConfig returns the stock timings.
func DefaultConfig() Config {
	return Config{
		ClientTag:         "web",
		HeartbeatInterval: 5 * time.Second,
		HeartbeatTimeout:  15 * time.Second,
		ReconnectDelay:    2 * time.Second,
		JoinErrorHold:     3 * time.Second,
	}
}

// Deps are the collaborators a Session drives.
type Deps struct {
	Loop     *eventloop.Loop
	NewPeer  PeerFactory
	Channel  *transport.Handle
	Displays *display.Registry
	Input    Input
	Sink     notify.Sink
	Messages notify.Messages
	// Restart runs ReconnectDelay after the signaling link was declared dead.
	Restart func()
	// Remember stores the last transmission id.
	Remember func(id string)
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	State          State           `json:"state"`
	ClientID       string          `json:"client_id"`
	TransmissionID string          `json:"transmission_id,omitempty"`
	LinkOpen       bool            `json:"link_open"`
	ChannelOpen    bool            `json:"channel_open"`
	Restarting     bool            `json:"restarting"`
	Displays       []display.Entry `json:"displays"`
	LastPongAt     time.Time       `json:"last_pong_at"`
}

// Session owns the connection lifecycle. Every method except Snapshot and
// LinkEvents must run on the loop.
type Session struct {
	cfg      Config
	loop     *eventloop.Loop
	newPeer  PeerFactory
	channel  *transport.Handle
	displays *display.Registry
	input    Input
	sink     notify.Sink
	msgs     notify.Messages
	restart  func()
	remember func(string)
	link     Signal

	state          State
	clientID       string
	transmissionID string
	peer           Peer
	peerStop       chan struct{}
	gen            uint64
	lastPongAt     time.Time
	restarting     bool

	mu   sync.RWMutex
	snap Snapshot
}

// New returns a disconnected session.
func New(cfg Config, d Deps) *Session {
	if d.Sink == nil {
		d.Sink = notify.Discard{}
	}
	if d.Channel == nil {
		d.Channel = &transport.Handle{}
	}
	if d.Displays == nil {
		d.Displays = display.NewRegistry()
	}
	s := &Session{
		cfg:      cfg,
		loop:     d.Loop,
		newPeer:  d.NewPeer,
		channel:  d.Channel,
		displays: d.Displays,
		input:    d.Input,
		sink:     d.Sink,
		msgs:     d.Messages,
		restart:  d.Restart,
		remember: d.Remember,
	}
	s.publish()
	return s
}

// AttachLink sets the signaling link used for sends.
func (s *Session) AttachLink(link Signal) {
	s.link = link
}

// LinkEvents returns link callbacks that hand every event to the loop.
func (s *Session) LinkEvents() signaling.Events {
	return signaling.Events{
		OnOpen:    func() { s.loop.Post(s.OnLinkOpen) },
		OnMessage: func(m signaling.Message) { s.loop.Post(func() { s.OnMessage(m) }) },
		OnClose:   func(err error) { s.loop.Post(func() { s.OnLinkClosed(err) }) },
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// ClientID returns the id assigned at login.
func (s *Session) ClientID() string { return s.clientID }

// Snapshot returns the last published view. Safe for concurrent use.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Announce re-emits the current state for a newly attached UI.
func (s *Session) Announce() {
	s.sink.Notify(notify.Event{T: notify.TypeSession, State: s.state.String(), ID: s.transmissionID})
	s.sink.Notify(notify.Event{T: notify.TypeChannel, Open: s.channel.IsOpen()})
	for _, e := range s.displays.Entries() {
		s.sink.Notify(notify.Event{T: notify.TypeTrack, Index: e.Index, ID: e.ID})
	}
	if idx, _, ok := s.displays.Active(); ok {
		s.sink.Notify(notify.Event{T: notify.TypeDisplay, Index: idx})
	}
}

// OnLinkOpen logs in and starts the heartbeat.
func (s *Session) OnLinkOpen() {
	s.restarting = false
	s.setState(LoggingIn)
	_ = s.send(signaling.Login(s.cfg.ClientTag))
	s.startHeartbeat()
}

// OnLinkClosed handles the end of the signaling link. A nil err means the
// link was closed locally.
func (s *Session) OnLinkClosed(err error) {
	s.stopHeartbeat()
	if err == nil {
		log.Info().Msg("signaling link closed")
		s.publish()
		return
	}
	log.Warn().Err(err).Msg("signaling link lost")
	s.sink.Notify(notify.Status("signaling", s.msgs.ConnectionLost))
	s.scheduleRestart()
}

// OnMessage dispatches one signaling message.
func (s *Session) OnMessage(msg signaling.Message) {
	switch msg.Type {
	case signaling.TypePong:
		s.onPong()
	case signaling.TypeLogin:
		s.onLogin(msg)
	case signaling.TypeJoinReply:
		s.onJoinReply(msg)
	case signaling.TypeOffer:
		s.onOffer(msg)
	case signaling.TypeCandidate:
		s.onRemoteCandidate(msg)
	case signaling.TypeLeave:
		s.onRemoteLeave(msg)
	default:
		log.Debug().Str("type", msg.Type).Msg("signaling message ignored")
	}
}

// onLogin records the assigned client id.
func (s *Session) onLogin(msg signaling.Message) {
	s.clientID = signaling.ClientID(msg.UserID)
	log.Info().Str("client_id", s.clientID).Msg("logged in")
	if s.state == LoggingIn {
		s.setState(AwaitingOffer)
		return
	}
	s.publish()
}

// onJoinReply surfaces a failed join and schedules the disconnect.
func (s *Session) onJoinReply(msg signaling.Message) {
	if msg.Status != signaling.StatusFailed {
		log.Debug().Str("status", msg.Status).Msg("join reply")
		return
	}
	text := s.joinErrorText(msg.Reason)
	if text == "" {
		log.Warn().Str("reason", msg.Reason).Msg("join rejected")
		return
	}
	log.Warn().Str("reason", msg.Reason).Str("transmission_id", s.transmissionID).Msg("join rejected")
	s.sink.Notify(notify.Event{T: notify.TypeError, Text: text, Ms: s.cfg.JoinErrorHold.Milliseconds()})
	s.sink.Notify(notify.Overlay(true))
	s.loop.After(joinHoldKey, s.cfg.JoinErrorHold, s.Disconnect)
}

// joinErrorText maps a server failure reason to a localized message.
func (s *Session) joinErrorText(reason string) string {
	switch strings.ToLower(strings.TrimSpace(reason)) {
	case "no such transmission id", "no such id":
		return s.msgs.NoSuchDevice
	case "incorrect password":
		return s.msgs.IncorrectPassword
	default:
		return ""
	}
}

// onOffer replaces the peer and starts answering the host's offer.
func (s *Session) onOffer(msg signaling.Message) {
	s.resetMedia()
	s.gen++
	gen := s.gen
	if s.newPeer == nil {
		log.Error().Msg("offer received without a peer factory")
		return
	}
	peer, err := s.newPeer(s.peerEvents(gen))
	if err != nil {
		log.Error().Err(err).Msg("create peer failed")
		s.sink.Notify(notify.Status("failed", s.msgs.ConnectionFailed))
		return
	}
	s.peer = peer
	stop := make(chan struct{})
	s.peerStop = stop
	if s.transmissionID == "" {
		s.transmissionID = msg.TransmissionID
	}

	if err := peer.SetRemoteOffer(msg.SDP); err != nil {
		log.Error().Err(err).Msg("failed to handle offer")
		s.closePeer()
		return
	}
	gathered, err := peer.CreateAnswer()
	if err != nil {
		log.Error().Err(err).Msg("failed to create answer")
		s.closePeer()
		return
	}
	s.setState(Negotiating)

	go func() {
		select {
		case <-gathered:
			s.loop.Post(func() { s.sendAnswer(gen) })
		case <-stop:
		}
	}()
}

// sendAnswer sends the local description once gathering is done.
func (s *Session) sendAnswer(gen uint64) {
	if gen != s.gen || s.peer == nil {
		return
	}
	log.Info().Str("transmission_id", s.transmissionID).Msg("sending answer")
	_ = s.send(signaling.Answer(s.transmissionID, s.clientID, s.peer.LocalSDP()))
}

// peerEvents wraps peer callbacks so they run on the loop and are dropped
// once the peer generation is stale.
func (s *Session) peerEvents(gen uint64) PeerEvents {
	guard := func(fn func()) {
		s.loop.Post(func() {
			if gen == s.gen && s.peer != nil {
				fn()
			}
		})
	}
	return PeerEvents{
		OnICEState: func(st string) { guard(func() { s.onICEState(st) }) },
		OnCandidate: func(candidate, mid string) {
			guard(func() {
				_ = s.send(signaling.Candidate(s.transmissionID, s.clientID, candidate, mid))
			})
		},
		OnChannel: func(ch transport.Channel) {
			s.loop.Post(func() {
				if gen != s.gen || s.peer == nil {
					_ = ch.Close()
					return
				}
				s.onChannel(ch)
			})
		},
		OnChannelClose: func() { guard(s.onChannelClose) },
		OnTrack:        func(t display.Track) { guard(func() { s.onTrack(t) }) },
	}
}

// onICEState maps transport state changes to status and state.
func (s *Session) onICEState(st string) {
	log.Info().Str("ice", st).Msg("ice connection state")
	switch st {
	case "connected", "completed":
		s.sink.Notify(notify.Status(st, ""))
		s.sink.Notify(notify.Overlay(false))
		s.setState(Connected)
	case "disconnected":
		s.sink.Notify(notify.Status(st, s.msgs.ConnectionLost))
		s.sink.Notify(notify.Overlay(true))
	case "failed":
		s.sink.Notify(notify.Status(st, s.msgs.ConnectionFailed))
		s.sink.Notify(notify.Overlay(true))
		s.teardown()
	default:
		s.sink.Notify(notify.Status(st, ""))
	}
}

// onChannel installs the opened session channel.
func (s *Session) onChannel(ch transport.Channel) {
	if prev := s.channel.Set(ch); prev != nil && prev != ch {
		_ = prev.Close()
	}
	log.Info().Str("label", ch.Label()).Msg("session channel open")
	s.sink.Notify(notify.Event{T: notify.TypeChannel, Open: true})
	s.publish()
}

// onChannelClose drops the session channel.
func (s *Session) onChannelClose() {
	log.Info().Msg("session channel closed")
	if s.input != nil {
		s.input.Reset()
	}
	s.channel.Clear()
	s.sink.Notify(notify.Event{T: notify.TypeChannel, Open: false})
	s.publish()
}

// onTrack registers a remote display track.
func (s *Session) onTrack(t display.Track) {
	idx := s.displays.Add(t)
	log.Info().Int("index", idx).Str("track_id", t.ID()).Msg("remote video track")
	s.sink.Notify(notify.Event{T: notify.TypeTrack, Index: idx, ID: t.ID()})
	if active, _, ok := s.displays.Active(); ok && active == idx {
		s.sink.Notify(notify.Event{T: notify.TypeDisplay, Index: idx})
	}
	s.publish()
}

// onRemoteCandidate hands a host candidate to the peer.
func (s *Session) onRemoteCandidate(msg signaling.Message) {
	if s.peer == nil {
		return
	}
	if err := s.peer.AddCandidate(msg.Candidate, msg.Mid); err != nil {
		log.Warn().Err(err).Msg("error adding ice candidate")
	}
}

// onRemoteLeave tears down when the host ends the transmission.
func (s *Session) onRemoteLeave(msg signaling.Message) {
	if s.state == Disconnected || (msg.UserID != "" && msg.UserID == s.clientID) {
		return
	}
	log.Info().Str("user_id", msg.UserID).Msg("host left the transmission")
	s.sink.Notify(notify.Overlay(false))
	s.teardown()
}

// Connect asks the server to join transmission id.
func (s *Session) Connect(id, password string) error {
	id = strings.TrimSpace(id)
	password = strings.TrimSpace(password)
	if id == "" {
		return ErrNoTransmission
	}
	if s.link == nil || !s.link.IsOpen() || s.clientID == "" {
		return ErrNotReady
	}
	s.loop.Cancel(joinHoldKey)
	s.transmissionID = id
	if s.remember != nil {
		s.remember(id)
	}
	s.sink.Notify(notify.Status("connecting", s.msgs.Connecting))
	s.sink.Notify(notify.Overlay(true))
	if err := s.send(signaling.Join(s.clientID, id, password)); err != nil {
		return err
	}
	s.setState(AwaitingOffer)
	return nil
}

// Disconnect leaves the transmission and releases every media resource.
func (s *Session) Disconnect() {
	s.loop.Cancel(joinHoldKey)
	if s.state != Disconnected {
		s.setState(Closing)
	}
	if s.transmissionID != "" && s.link != nil && s.link.IsOpen() {
		_ = s.send(signaling.Leave(s.clientID, s.transmissionID))
	}
	s.sink.Notify(notify.Overlay(false))
	s.teardown()
}

// SelectDisplay switches the shown track and tells the host.
func (s *Session) SelectDisplay(id float64) error {
	if math.IsNaN(id) || math.IsInf(id, 0) {
		return control.ErrInvalidDisplayID
	}
	idx := int(control.TruncInt32(id))
	if _, ok := s.displays.Select(idx); ok {
		s.sink.Notify(notify.Event{T: notify.TypeDisplay, Index: idx})
		s.publish()
	} else {
		log.Debug().Int("index", idx).Msg("display not received yet")
	}
	if s.input == nil {
		return nil
	}
	return s.input.EmitDisplaySelect(id)
}

// teardown releases media and returns to Disconnected.
func (s *Session) teardown() {
	s.resetMedia()
	s.sink.Notify(notify.Event{T: notify.TypeChannel, Open: false})
	s.setState(Disconnected)
}

// resetMedia clears input state, the peer, the channel and the track table.
func (s *Session) resetMedia() {
	if s.input != nil {
		s.input.Reset()
	}
	s.closePeer()
	s.channel.Clear()
	s.displays.Reset()
}

// closePeer stops pending answers and closes the peer.
func (s *Session) closePeer() {
	if s.peerStop != nil {
		close(s.peerStop)
		s.peerStop = nil
	}
	if s.peer == nil {
		return
	}
	if err := s.peer.Close(); err != nil {
		log.Warn().Err(err).Msg("close peer")
	}
	s.peer = nil
}

// scheduleRestart drops the link and asks for a restart after ReconnectDelay.
func (s *Session) scheduleRestart() {
	if s.restarting {
		return
	}
	s.restarting = true
	s.stopHeartbeat()
	s.setState(Closing)
	if s.link != nil {
		_ = s.link.Close()
	}
	s.resetMedia()
	s.setState(Disconnected)
	s.loop.After(restartKey, s.cfg.ReconnectDelay, func() {
		log.Info().Msg("restarting client")
		if s.restart != nil {
			s.restart()
		}
	})
}

// send writes msg to the signaling link.
func (s *Session) send(msg signaling.Message) error {
	if s.link == nil {
		return signaling.ErrLinkClosed
	}
	if err := s.link.Send(msg); err != nil {
		log.Warn().Err(err).Str("type", msg.Type).Msg("signaling send failed")
		return err
	}
	return nil
}

// setState moves to st and notifies the UI on change.
func (s *Session) setState(st State) {
	if s.state == st {
		s.publish()
		return
	}
	log.Info().Stringer("from", s.state).Stringer("to", st).Msg("session state")
	s.state = st
	s.sink.Notify(notify.Event{T: notify.TypeSession, State: st.String()})
	s.publish()
}

// publish refreshes the snapshot read by other goroutines.
func (s *Session) publish() {
	snap := Snapshot{
		State:          s.state,
		ClientID:       s.clientID,
		TransmissionID: s.transmissionID,
		LinkOpen:       s.link != nil && s.link.IsOpen(),
		ChannelOpen:    s.channel.IsOpen(),
		Restarting:     s.restarting,
		Displays:       s.displays.Entries(),
		LastPongAt:     s.lastPongAt,
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
