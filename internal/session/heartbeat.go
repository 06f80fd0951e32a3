package session

import (
	"time"

	"github.com/frudas24/deskpilot/internal/notify"
	"github.com/frudas24/deskpilot/internal/signaling"
	"github.com/rs/zerolog/log"
)

// startHeartbeat pings every interval and arms a deadline one millisecond
// past the timeout, so the link dies exactly when now-lastPongAt > timeout.
func (s *Session) startHeartbeat() {
	s.stopHeartbeat()
	s.lastPongAt = s.loop.Now()
	s.loop.Every(pingKey, s.cfg.HeartbeatInterval, s.cfg.HeartbeatInterval, s.ping)
	s.armDeadline()
}

// stopHeartbeat cancels the ping and deadline timers.
func (s *Session) stopHeartbeat() {
	s.loop.CancelKind(kindHeartbeat)
}

// ping sends one liveness probe.
func (s *Session) ping() {
	if s.link == nil || !s.link.IsOpen() {
		return
	}
	_ = s.send(signaling.Ping(s.loop.Now().UnixMilli()))
}

// onPong records the reply and pushes the deadline out.
func (s *Session) onPong() {
	s.lastPongAt = s.loop.Now()
	if _, ok := s.loop.Timer(pingKey); ok {
		s.armDeadline()
	}
}

// armDeadline fires just after the timeout measured from the last pong.
func (s *Session) armDeadline() {
	s.loop.After(deadlineKey, s.cfg.HeartbeatTimeout+time.Millisecond, s.linkDead)
}

// linkDead treats a silent link as lost.
func (s *Session) linkDead() {
	log.Warn().
		Dur("since_pong", s.loop.Now().Sub(s.lastPongAt)).
		Dur("timeout", s.cfg.HeartbeatTimeout).
		Msg("signaling heartbeat timed out")
	s.sink.Notify(notify.Status("signaling", s.msgs.ConnectionLost))
	s.scheduleRestart()
}
