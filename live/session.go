// Package live implements a client for the Gemini Live API: one persistent
// WebSocket session per logical conversation, with text, realtime audio,
// image frames, and tool results multiplexed outbound and inbound frames
// demultiplexed into typed events on a synchronous bus.
package live

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/jayreddin/gemini-2-live-JR/credentials"
	"github.com/jayreddin/gemini-2-live-JR/events"
	"github.com/jayreddin/gemini-2-live-JR/internal/streaming"
	"github.com/jayreddin/gemini-2-live-JR/logger"
)

const tracerName = "github.com/jayreddin/gemini-2-live-JR/live"

// Session is one logical conversation with the Live API. It owns at most one
// transport at a time; concurrent Connect calls collapse onto a single
// in-flight attempt. A Session is reusable: after Disconnect, Connect opens
// a fresh transport with the same configuration.
type Session struct {
	id      string
	cfg     Config
	creds   credentials.Provider
	bus     *events.Bus
	tracer  trace.Tracer
	limiter *rate.Limiter
	router  *router

	connectGroup singleflight.Group

	mu          sync.Mutex
	phase       Phase
	setupDone   bool
	conn        *streaming.Conn
	readCancel  context.CancelFunc
	setupCh     chan error
	everHadConn bool

	// gen stamps each connect attempt. Disconnect bumps it, so an attempt
	// that resumes after the dial can tell its state is stale and must not
	// be installed.
	gen        uint64
	dialCancel context.CancelFunc
}

// NewSession validates cfg and builds a Session. The credential provider is
// an injected capability; passing nil falls back to the process environment
// via credentials.Default.
func NewSession(cfg Config, provider credentials.Provider) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		provider = credentials.Default()
	}

	s := &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		creds:  provider,
		bus:    events.NewBus(),
		tracer: otel.Tracer(tracerName),
		phase:  PhaseIdle,
	}
	if cfg.MediaRateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.MediaRateLimit), 1)
	}
	s.router = &router{
		sessionID: s.id,
		bus:       s.bus,
		setup:     s.latchSetupComplete,
	}
	return s, nil
}

// ID returns the session's unique identifier, stamped on every event.
func (s *Session) ID() string { return s.id }

// Bus returns the session's event bus.
func (s *Session) Bus() *events.Bus { return s.bus }

// On subscribes a listener to one of the session's named events and returns
// an unsubscribe function.
func (s *Session) On(eventType events.EventType, listener events.Listener) func() {
	return s.bus.Subscribe(eventType, listener)
}

// Phase returns the current connection phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// HandshakeComplete reports whether the setup acknowledgment has arrived for
// the current connection attempt.
func (s *Session) HandshakeComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setupDone
}

// Connect resolves the credential, opens the transport, sends the setup
// frame, and blocks until the server acknowledges it. Concurrent callers
// share the single in-flight attempt; a call while already ready returns
// nil. There is no internal timeout: ctx is the only deadline.
func (s *Session) Connect(ctx context.Context) error {
	ch := s.connectGroup.DoChan("connect", func() (interface{}, error) {
		return nil, s.doConnect(ctx)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (s *Session) doConnect(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.phase == PhaseReady {
		s.mu.Unlock()
		return nil
	}
	s.phase = PhaseConnecting
	s.setupDone = false
	s.gen++
	gen := s.gen
	s.dialCancel = cancel
	s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "live.Connect",
		trace.WithAttributes(
			attribute.String("session.id", s.id),
			attribute.String("model", s.cfg.modelPath()),
		))
	defer span.End()

	start := time.Now()
	err = s.establish(ctx, gen)
	if err != nil {
		connectsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	connectsTotal.WithLabelValues("success").Inc()
	connectDuration.Observe(time.Since(start).Seconds())
	return nil
}

func (s *Session) establish(ctx context.Context, gen uint64) error {
	key, err := s.creds.APIKey(ctx)
	if err != nil {
		return s.failAttempt(gen, err)
	}
	if key == "" {
		return s.failAttempt(gen, ErrNoCredential)
	}

	wsURL, err := buildEndpointURL(s.cfg.endpoint(), key)
	if err != nil {
		return s.failAttempt(gen, err)
	}

	conn := streaming.NewConn(&streaming.ConnConfig{
		URL:    wsURL,
		Logger: connLogger{},
	})
	if err := conn.Connect(ctx); err != nil {
		return s.failAttempt(gen, &TransportError{Op: "dial", Err: err})
	}

	readCtx, readCancel := context.WithCancel(context.Background())
	setupCh := make(chan error, 1)

	s.mu.Lock()
	if gen != s.gen {
		// Disconnect intervened during the dial; the attempt owns a
		// transport nobody else knows about and must close it itself.
		s.mu.Unlock()
		readCancel()
		_ = conn.Close()
		return ErrSessionClosed
	}
	s.conn = conn
	s.everHadConn = true
	s.readCancel = readCancel
	s.setupCh = setupCh
	s.phase = PhaseOpen
	s.mu.Unlock()

	if err := conn.SendJSON(s.cfg.setupMessage()); err != nil {
		s.teardown(gen, PhaseFailed)
		return &TransportError{Op: "setup", Err: err}
	}
	outboundFramesTotal.WithLabelValues("setup").Inc()

	go s.readLoop(readCtx, conn)

	select {
	case <-ctx.Done():
		s.teardown(gen, PhaseFailed)
		s.mu.Lock()
		superseded := gen != s.gen
		s.mu.Unlock()
		if superseded {
			// Disconnect canceled the attempt; report the closure, not
			// the incidental context error.
			return ErrSessionClosed
		}
		return ctx.Err()
	case err := <-setupCh:
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	if gen != s.gen || s.conn == nil {
		// Disconnect won the race against the setup acknowledgment.
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.phase = PhaseReady
	s.mu.Unlock()
	sessionsActive.Inc()

	if s.cfg.HeartbeatInterval > 0 {
		conn.StartHeartbeat(readCtx, s.cfg.HeartbeatInterval.Std())
	}

	logger.Info("session ready", "session_id", s.id, "model", s.cfg.modelPath())
	return nil
}

// Disconnect closes the transport if open, resets the phase to Closed, and
// unblocks any pending Connect. Safe to call repeatedly.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if s.conn == nil && (s.phase == PhaseIdle || s.phase.terminal()) {
		s.phase = PhaseClosed
		s.mu.Unlock()
		return nil
	}
	wasReady := s.phase == PhaseReady
	s.phase = PhaseClosing
	s.gen++
	gen := s.gen
	conn := s.conn
	readCancel := s.readCancel
	dialCancel := s.dialCancel
	setupCh := s.setupCh
	pending := !s.setupDone && setupCh != nil
	s.conn = nil
	s.readCancel = nil
	s.dialCancel = nil
	s.setupCh = nil
	s.mu.Unlock()

	if pending {
		select {
		case setupCh <- ErrSessionClosed:
		default:
		}
	}
	if dialCancel != nil {
		dialCancel()
	}
	if readCancel != nil {
		readCancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	s.connectGroup.Forget("connect")

	s.mu.Lock()
	if gen == s.gen {
		s.phase = PhaseClosed
	}
	s.mu.Unlock()
	if wasReady {
		sessionsActive.Dec()
	}

	logger.Debug("session disconnected", "session_id", s.id)
	return nil
}

// readLoop is the single consumer of inbound frames. Frames are handled one
// at a time in arrival order; every bus publication happens synchronously on
// this goroutine.
func (s *Session) readLoop(ctx context.Context, conn *streaming.Conn) {
	for {
		msgType, data, err := conn.Receive(ctx)
		if err != nil {
			s.handleReadError(ctx, conn, err)
			return
		}
		if msgType != websocket.BinaryMessage {
			logger.Warn("ignoring non-binary inbound frame",
				"session_id", s.id, "message_type", msgType)
			droppedFramesTotal.WithLabelValues("non_binary").Inc()
			continue
		}
		s.router.route(data)
	}
}

func (s *Session) handleReadError(ctx context.Context, conn *streaming.Conn, err error) {
	if ctx.Err() != nil {
		// Deliberate shutdown via Disconnect.
		return
	}

	s.mu.Lock()
	if s.phase == PhaseClosing || s.phase == PhaseClosed || s.conn != conn {
		s.mu.Unlock()
		return
	}
	wasReady := s.phase == PhaseReady
	pending := !s.setupDone && s.setupCh != nil
	setupCh := s.setupCh
	s.conn = nil
	s.setupCh = nil
	if s.readCancel != nil {
		s.readCancel()
		s.readCancel = nil
	}
	if pending {
		s.phase = PhaseFailed
	} else {
		s.phase = PhaseClosed
	}
	s.mu.Unlock()

	_ = conn.Close()
	if wasReady {
		sessionsActive.Dec()
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		ce := &CloseError{
			Code:            closeErr.Code,
			Reason:          closeErr.Text,
			DuringHandshake: pending,
		}
		if ce.AuthFailure() {
			logger.Error("connection closed: authentication failure",
				"session_id", s.id, "code", ce.Code, "reason", logger.RedactSensitiveData(ce.Reason))
			s.publish(EventError, &ErrorData{Err: ce})
			s.publish(EventAuthFailed, &DisconnectData{Code: ce.Code, Reason: ce.Reason})
		} else {
			logger.Info("connection closed",
				"session_id", s.id, "code", ce.Code, "reason", ce.Reason)
			s.publish(EventDisconnected, &DisconnectData{Code: ce.Code, Reason: ce.Reason})
		}
		if pending {
			setupCh <- ce
		}
		return
	}

	te := &TransportError{Op: "receive", Err: err}
	logger.Error("transport error", "session_id", s.id, "error", err)
	s.publish(EventError, &ErrorData{Err: te})
	s.publish(EventDisconnected, &DisconnectData{})
	if pending {
		setupCh <- te
	}
}

// latchSetupComplete flips the handshake flag exactly once per connection
// attempt. Returns false for duplicate acknowledgments.
func (s *Session) latchSetupComplete() bool {
	s.mu.Lock()
	if s.setupDone {
		s.mu.Unlock()
		return false
	}
	s.setupDone = true
	setupCh := s.setupCh
	s.mu.Unlock()

	if setupCh != nil {
		select {
		case setupCh <- nil:
		default:
		}
	}
	return true
}

// failAttempt marks the attempt failed and returns err, unless Disconnect
// already superseded the attempt, in which case the caller gets
// ErrSessionClosed and the session state is left alone.
func (s *Session) failAttempt(gen uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrSessionClosed
	}
	s.phase = PhaseFailed
	return err
}

func (s *Session) teardown(gen uint64, phase Phase) {
	s.mu.Lock()
	if gen != s.gen {
		// Disconnect already tore this attempt down.
		s.mu.Unlock()
		return
	}
	conn := s.conn
	s.conn = nil
	s.setupCh = nil
	if s.readCancel != nil {
		s.readCancel()
		s.readCancel = nil
	}
	s.phase = phase
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (s *Session) publish(eventType events.EventType, data any) {
	s.bus.Publish(&events.Event{
		Type:      eventType,
		SessionID: s.id,
		Data:      data,
	})
}

// buildEndpointURL embeds the credential as the key query parameter.
func buildEndpointURL(endpoint, key string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", &AddressError{Address: endpoint, Err: err}
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", &AddressError{Address: endpoint, Err: errors.New("scheme must be ws or wss")}
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// connLogger adapts the package logger to the transport's Logger interface.
type connLogger struct{}

func (connLogger) Debug(msg string, kv ...interface{}) { logger.Debug(msg, kv...) }
func (connLogger) Info(msg string, kv ...interface{})  { logger.Info(msg, kv...) }
func (connLogger) Warn(msg string, kv ...interface{})  { logger.Warn(msg, kv...) }
func (connLogger) Error(msg string, kv ...interface{}) { logger.Error(msg, kv...) }
