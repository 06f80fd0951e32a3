// Package app wires signaling, media, input and the local UI together.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/frudas24/deskpilot/internal/config"
	"github.com/frudas24/deskpilot/internal/control"
	"github.com/frudas24/deskpilot/internal/display"
	"github.com/frudas24/deskpilot/internal/eventloop"
	"github.com/frudas24/deskpilot/internal/notify"
	"github.com/frudas24/deskpilot/internal/prefs"
	"github.com/frudas24/deskpilot/internal/session"
	"github.com/frudas24/deskpilot/internal/signaling"
	"github.com/frudas24/deskpilot/internal/transport"
	"github.com/frudas24/deskpilot/internal/ui"
	"github.com/frudas24/deskpilot/internal/webrtc"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrRestart is returned by Run when the session asked for a fresh start.
var ErrRestart = errors.New("restart requested")

// App owns every long-lived component of one client process.
type App struct {
	cfg       config.Config
	loop      *eventloop.Loop
	channel   *transport.Handle
	displays  *display.Registry
	input     *control.Virtualizer
	session   *session.Session
	prefs     *prefs.Store
	hub       *ui.Hub
	dispatch  *ui.Dispatcher
	forwarder *webrtc.Forwarder
	factory   *webrtc.Factory
	link      *signaling.Link
	restart   chan struct{}
}

// New builds the application from cfg. Nothing is dialed until Run.
func New(cfg config.Config) (*App, error) {
	return newApp(cfg, clockwork.NewRealClock())
}

// newApp builds the application on clock.
func newApp(cfg config.Config, clock clockwork.Clock) (*App, error) {
	store, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		return nil, fmt.Errorf("open prefs: %w", err)
	}

	a := &App{
		cfg:      cfg,
		loop:     eventloop.New(clock),
		channel:  &transport.Handle{},
		displays: display.NewRegistry(),
		prefs:    store,
		restart:  make(chan struct{}, 1),
	}
	msgs := notify.MessagesFor(cfg.Locale)

	a.forwarder, err = webrtc.NewForwarder(a.displays, cfg.VideoSinkAddr)
	if err != nil {
		return nil, err
	}
	a.factory, err = webrtc.NewFactory(webrtc.ICEConfig{
		URLs:       cfg.ICEServers,
		Username:   cfg.ICEUsername,
		Credential: cfg.ICECredential,
	}, a.forwarder)
	if err != nil {
		_ = a.forwarder.Close()
		return nil, err
	}

	a.hub = ui.NewHub(a.loop, func(m ui.Message) { a.dispatch.Handle(m) })
	a.input = control.NewVirtualizer(a.loop, a.channel, a.hub, msgs)
	a.input.SetTouchMode(control.ParseTouchMode(store.Get().TouchMode))

	a.session = session.New(session.Config{
		ClientTag:         cfg.ClientTag,
		HeartbeatInterval: cfg.HeartbeatInterval(),
		HeartbeatTimeout:  cfg.HeartbeatTimeout(),
		ReconnectDelay:    cfg.ReconnectDelay(),
		JoinErrorHold:     cfg.JoinErrorHold(),
	}, session.Deps{
		Loop:     a.loop,
		NewPeer:  a.factory.NewPeer,
		Channel:  a.channel,
		Displays: a.displays,
		Input:    a.input,
		Sink:     a.hub,
		Messages: msgs,
		Restart:  a.requestRestart,
		Remember: a.rememberTransmission,
	})
	a.dispatch = ui.NewDispatcher(a.loop, a.input, a.session, store, a.hub)

	a.forwarder.OnFirstPacket(func() {
		a.loop.Post(func() { a.hub.Notify(notify.Overlay(false)) })
	})

	a.link = signaling.NewLink(cfg.SignalingURL, cfg.SignalingInsecure, a.session.LinkEvents())
	a.session.AttachLink(a.link)
	return a, nil
}

// Run dials the signaling server and drives the event loop until ctx is done
// or the session asks for a restart, in which case ErrRestart is returned.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.link.Start(ctx)
	done := make(chan error, 1)
	go func() { done <- a.loop.Run(ctx) }()

	select {
	case <-ctx.Done():
		<-done
		return nil
	case <-a.restart:
		cancel()
		<-done
		return ErrRestart
	case err := <-done:
		return err
	}
}

// Stop releases the link, the peer and the video sink.
func (a *App) Stop() error {
	if err := a.link.Close(); err != nil && !errors.Is(err, signaling.ErrLinkClosed) {
		log.Warn().Err(err).Msg("close signaling link")
	}
	return a.forwarder.Close()
}

// Session returns the session state machine.
func (a *App) Session() *session.Session {
	return a.session
}

// UI returns the local UI websocket handler.
func (a *App) UI() *ui.Hub {
	return a.hub
}

// requestRestart runs on the loop when the session gave up on the link.
func (a *App) requestRestart() {
	select {
	case a.restart <- struct{}{}:
	default:
	}
}

// rememberTransmission stores the last joined transmission id.
func (a *App) rememberTransmission(id string) {
	if err := a.prefs.Update(func(p *prefs.Prefs) { p.TransmissionID = id }); err != nil {
		log.Warn().Err(err).Msg("save transmission id")
	}
}
