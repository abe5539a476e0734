package conn

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/bashchat/bashchatd/internal/bus"
	"github.com/bashchat/bashchatd/internal/status"
	"github.com/bashchat/bashchatd/internal/wire"
	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrNoCredentials reports a connect attempt without a stored access
// token. This is a precondition failure, not a transient error: the
// manager stays Closed and never retries until the caller re-authenticates.
var ErrNoCredentials = errors.New("no access token available")

// TokenSource supplies the bearer token used to authenticate the socket.
type TokenSource interface {
	AccessToken() (string, error)
}

// Manager owns the single live socket to the chat backend: open, send,
// close, and the reconnect policy. Inbound frames are decoded and handed
// to the dispatch function strictly sequentially from one read loop.
type Manager struct {
	addr     string
	tokens   TokenSource
	machine  *status.Machine
	bus      *bus.Bus
	logger   *zap.Logger
	dispatch func(*wire.Frame)

	// Reconnect policy. Zero values are replaced with defaults.
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMax             int

	mu      sync.Mutex // guards ws and closing; also serializes writes
	ws      *websocket.Conn
	closing bool

	retryMu     sync.Mutex
	retryCancel context.CancelFunc
}

// New creates a manager. addr is host:port of the backend; dispatch
// receives every decoded inbound frame.
func New(addr string, tokens TokenSource, machine *status.Machine, b *bus.Bus, dispatch func(*wire.Frame), logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		addr:     addr,
		tokens:   tokens,
		machine:  machine,
		bus:      b,
		logger:   logger,
		dispatch: dispatch,

		RetryInitialInterval: time.Second,
		RetryMaxInterval:     30 * time.Second,
		RetryMax:             6,
	}
}

// Connect opens the socket. It is a no-op (nil error) when a connection
// is already open or in flight. A missing access token returns
// ErrNoCredentials and leaves the manager Closed.
//
// On success the three priming requests are issued so every projection
// seeds itself, and the read loop starts.
func (m *Manager) Connect(ctx context.Context) error {
	if err := m.machine.Transition(status.Connecting); err != nil {
		// Already connecting or open.
		return nil
	}

	token, err := m.tokens.AccessToken()
	if err != nil || token == "" {
		m.machine.Reset()
		m.publish(bus.KindConnAuthRequired, nil)
		m.logger.Warn("connect aborted: no valid access token")
		return ErrNoCredentials
	}

	u := url.URL{Scheme: "ws", Host: m.addr, Path: "/chat/", RawQuery: "token=" + url.QueryEscape(token)}
	m.logger.Info("dialing chat socket", zap.String("host", m.addr))

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		m.machine.Reset()
		return fmt.Errorf("dial %s: %w", m.addr, err)
	}

	m.mu.Lock()
	m.ws = ws
	m.closing = false
	m.mu.Unlock()

	if err := m.machine.Transition(status.Open); err != nil {
		// Close raced us; drop the socket and forget it.
		_ = ws.Close()
		m.mu.Lock()
		if m.ws == ws {
			m.ws = nil
		}
		m.mu.Unlock()
		return nil
	}
	m.logger.Info("chat socket open")

	m.prime()
	go m.readLoop(ws)
	return nil
}

// prime seeds every projection right after the socket opens.
func (m *Manager) prime() {
	m.Send(wire.PrimeRequest(wire.KindRequestList))
	m.Send(wire.PrimeRequest(wire.KindFriendList))
	m.Send(wire.PrimeRequest(wire.KindMessageList))
}

// Send serializes v and writes it to the socket. When the connection is
// not open the frame is silently dropped (logged at debug): delivery is
// at-least-effort, and callers that need guarantees must check readiness
// themselves.
func (m *Manager) Send(v any) {
	raw, err := wire.Encode(v)
	if err != nil {
		m.logger.Error("encode outbound frame", zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ws == nil || m.machine.Current() != status.Open {
		m.logger.Debug("dropping outbound frame: socket not open")
		return
	}
	if err := m.ws.WriteMessage(websocket.TextMessage, raw); err != nil {
		m.logger.Warn("write outbound frame", zap.Error(err))
	}
}

// Close shuts the socket down. Idempotent: it always ends Closed,
// swallowing transport errors, and stops any pending reconnect attempts.
func (m *Manager) Close() {
	m.retryMu.Lock()
	if m.retryCancel != nil {
		m.retryCancel()
		m.retryCancel = nil
	}
	m.retryMu.Unlock()

	m.mu.Lock()
	m.closing = true
	if m.ws != nil {
		_ = m.ws.Close()
		m.ws = nil
	}
	m.mu.Unlock()

	m.machine.Reset()
}

// readLoop consumes frames until the socket dies. Decode failures and
// unknown source tags are logged and dropped; they never tear the
// connection down. A transport failure resets state so a later Connect is
// not blocked, then hands off to the reconnect loop.
func (m *Manager) readLoop(ws *websocket.Conn) {
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			m.handleDisconnect(ws, err)
			return
		}

		frame, err := wire.Decode(raw)
		if err != nil {
			var unknown *wire.ErrUnknownSource
			if errors.As(err, &unknown) {
				m.logger.Warn("ignoring frame", zap.String("source", unknown.Source))
			} else {
				m.logger.Warn("dropping malformed frame", zap.Error(err))
			}
			continue
		}
		m.dispatch(frame)
	}
}

func (m *Manager) handleDisconnect(ws *websocket.Conn, cause error) {
	m.mu.Lock()
	if m.ws != ws {
		// A newer connection has taken over; nothing to do.
		m.mu.Unlock()
		return
	}
	m.ws = nil
	wasExplicit := m.closing
	m.mu.Unlock()

	m.machine.Reset()

	if wasExplicit {
		return
	}
	m.logger.Warn("chat socket lost", zap.Error(cause))
	m.startReconnect()
}

// startReconnect runs bounded exponential backoff with jitter in the
// background. Credential failures abort immediately (re-authentication is
// the only fix); exhausting the retry budget emits conn.gave_up so the
// caller can decide what to surface.
func (m *Manager) startReconnect() {
	ctx, cancel := context.WithCancel(context.Background())
	m.retryMu.Lock()
	if m.retryCancel != nil {
		m.retryCancel()
	}
	m.retryCancel = cancel
	m.retryMu.Unlock()

	go func() {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = m.RetryInitialInterval
		bo.MaxInterval = m.RetryMaxInterval
		bo.MaxElapsedTime = 0

		for attempt := 1; attempt <= m.RetryMax; attempt++ {
			wait := bo.NextBackOff()
			m.logger.Info("reconnect scheduled",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait))

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return
			}

			err := m.Connect(ctx)
			if err == nil {
				return
			}
			if errors.Is(err, ErrNoCredentials) {
				return
			}
			m.logger.Warn("reconnect attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		}

		m.logger.Error("giving up on reconnect", zap.Int("attempts", m.RetryMax))
		m.publish(bus.KindConnGaveUp, m.RetryMax)
	}()
}

func (m *Manager) publish(kind string, payload any) {
	if m.bus != nil {
		m.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
	}
}
