package signaling

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrLinkClosed is returned when sending on a link that is not open.
var ErrLinkClosed = errors.New("signaling link closed")

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
	readLimit        = 1 << 20
)

// Events receives link lifecycle callbacks. Callbacks run on the link's
// goroutines; receivers hand them to their own loop.
type Events struct {
	OnOpen    func()
	OnMessage func(Message)
	// OnClose receives nil when the link was closed locally.
	OnClose func(err error)
}

// Link is a client connection to the signaling server.
type Link struct {
	url      string
	insecure bool
	events   Events

	mu      sync.Mutex
	conn    *websocket.Conn
	closing bool

	writeMu sync.Mutex
}

// NewLink returns an unconnected link.
func NewLink(rawURL string, insecure bool, events Events) *Link {
	return &Link{url: rawURL, insecure: insecure, events: events}
}

// ValidateURL checks that rawURL is a ws:// or wss:// endpoint.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse signaling url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("signaling url scheme %q: want ws or wss", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("signaling url %q has no host", rawURL)
	}
	return nil
}

// Start dials in the background. Dial failures are reported through OnClose.
func (l *Link) Start(ctx context.Context) {
	go func() {
		if err := l.dial(ctx); err != nil {
			log.Warn().Err(err).Str("url", l.url).Msg("signaling dial failed")
			l.closed(err)
			return
		}
		if l.events.OnOpen != nil {
			l.events.OnOpen()
		}
		l.readLoop()
	}()
}

// dial opens the websocket unless Close already ran.
func (l *Link) dial(ctx context.Context) error {
	d := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		NetDialContext: (&net.Dialer{
			Timeout:   handshakeTimeout,
			KeepAlive: 15 * time.Second,
		}).DialContext,
		Proxy: websocket.DefaultDialer.Proxy,
	}
	if l.insecure {
		d.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed signaling servers
	}
	conn, _, err := d.DialContext(ctx, l.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", l.url, err)
	}
	conn.SetReadLimit(readLimit)

	l.mu.Lock()
	if l.closing {
		l.mu.Unlock()
		_ = conn.Close()
		return ErrLinkClosed
	}
	l.conn = conn
	l.mu.Unlock()
	log.Info().Str("url", l.url).Msg("signaling connected")
	return nil
}

// readLoop decodes inbound messages until the connection fails.
func (l *Link) readLoop() {
	conn := l.current()
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			l.closed(err)
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		msg, err := Decode(data)
		if err != nil {
			log.Debug().Err(err).Msg("signaling message dropped")
			continue
		}
		if l.events.OnMessage != nil {
			l.events.OnMessage(msg)
		}
	}
}

// closed releases the connection and reports OnClose once.
func (l *Link) closed(err error) {
	l.mu.Lock()
	local := l.closing
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
	}
	l.mu.Unlock()
	if local {
		err = nil
	}
	if l.events.OnClose != nil {
		l.events.OnClose(err)
	}
}

// current returns the open connection, if any.
func (l *Link) current() *websocket.Conn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn
}

// IsOpen reports whether the link is connected.
func (l *Link) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil && !l.closing
}

// Send writes one message.
func (l *Link) Send(msg Message) error {
	l.mu.Lock()
	conn := l.conn
	closing := l.closing
	l.mu.Unlock()
	if conn == nil || closing {
		return ErrLinkClosed
	}
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}

// Close closes the link. The read loop reports OnClose(nil).
func (l *Link) Close() error {
	l.mu.Lock()
	if l.closing {
		l.mu.Unlock()
		return nil
	}
	l.closing = true
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return nil
	}
	l.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	l.writeMu.Unlock()
	return conn.Close()
}
