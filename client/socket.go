package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	// DefaultPingInterval is the keep-alive period.
	DefaultPingInterval = 30 * time.Second
	// ReconnectDelay is the flat delay before the single reconnect attempt.
	ReconnectDelay = 3 * time.Second

	// StatusUnauthorized is the application close code the backend uses for
	// rejected or expired tokens.
	StatusUnauthorized websocket.StatusCode = 4001

	writeTimeout = 10 * time.Second
	readLimit    = 1 << 20
)

var (
	ErrNoConversation = errors.New("socket: conversation id is required")
	ErrNoToken        = errors.New("socket: token is required")
	ErrNotConnected   = errors.New("socket: not connected")
)

// SocketState is the lifecycle state of a Socket.
type SocketState int32

const (
	SocketIdle SocketState = iota
	SocketConnecting
	SocketOpen
	SocketClosed
)

func (s SocketState) String() string {
	switch s {
	case SocketIdle:
		return "idle"
	case SocketConnecting:
		return "connecting"
	case SocketOpen:
		return "open"
	case SocketClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CloseAction is what the owner of a socket should do after it closes.
type CloseAction int

const (
	CloseReconnect CloseAction = iota
	CloseStop
	CloseAuthFailed
)

// ClassifyClose maps a close code to the reconnection policy: normal
// closures stop, auth closures stop and require a new login, anything else
// gets a reconnect attempt.
func ClassifyClose(code websocket.StatusCode) CloseAction {
	switch code {
	case websocket.StatusNormalClosure:
		return CloseStop
	case websocket.StatusPolicyViolation, StatusUnauthorized:
		return CloseAuthFailed
	default:
		return CloseReconnect
	}
}

// Sender receives decoded frames and lifecycle events. *tea.Program
// satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// SocketConnectedEvent is sent once the socket is open and subscribed.
type SocketConnectedEvent struct {
	Socket *Socket
}

// SocketClosedEvent is sent when a socket closes without Close having been
// called. Dial failures report StatusAbnormalClosure.
type SocketClosedEvent struct {
	Socket *Socket
	Code   websocket.StatusCode
	Err    error
}

// FrameWarning is sent when an inbound frame cannot be decoded.
type FrameWarning struct {
	Message string
}

// SocketOptions configures a Socket.
type SocketOptions struct {
	URL            string // ws://host/ws
	Token          string
	ConversationID string
	PingInterval   time.Duration
	Logger         *slog.Logger
}

// Socket owns one WebSocket connection together with its heartbeat. All of
// it is released by Close.
type Socket struct {
	opts  SocketOptions
	log   *slog.Logger
	state atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	conn *websocket.Conn

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSocket validates opts. It refuses to build a socket without a token or
// conversation id.
func NewSocket(opts SocketOptions) (*Socket, error) {
	if opts.ConversationID == "" {
		return nil, ErrNoConversation
	}
	if opts.Token == "" {
		return nil, ErrNoToken
	}
	if _, err := url.Parse(opts.URL); err != nil {
		return nil, fmt.Errorf("socket url: %w", err)
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Socket{
		opts:   opts,
		log:    log.With("conversation_id", opts.ConversationID),
		ctx:    ctx,
		cancel: cancel,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Endpoint returns the dial URL with token and conversation_id parameters.
func (s *Socket) Endpoint() string {
	u, err := url.Parse(s.opts.URL)
	if err != nil {
		return s.opts.URL
	}
	q := u.Query()
	q.Set("token", s.opts.Token)
	q.Set("conversation_id", s.opts.ConversationID)
	u.RawQuery = q.Encode()
	return u.String()
}

// ConversationID returns the conversation this socket subscribes to.
func (s *Socket) ConversationID() string { return s.opts.ConversationID }

// State returns the current lifecycle state.
func (s *Socket) State() SocketState { return SocketState(s.state.Load()) }

// Live reports whether a connection attempt is in flight or established.
func (s *Socket) Live() bool {
	st := s.State()
	return st == SocketConnecting || st == SocketOpen
}

// IsClosed reports whether Close has been called.
func (s *Socket) IsClosed() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Done is closed once every goroutine owned by the socket has returned.
func (s *Socket) Done() <-chan struct{} { return s.done }

// Start dials in the background and streams events to sender.
func (s *Socket) Start(sender Sender) {
	s.state.Store(int32(SocketConnecting))
	go s.run(sender)
}

// Send writes one outbound frame. It blocks on the network, so callers on
// the UI thread wrap it in a tea.Cmd.
func (s *Socket) Send(frame any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil || s.State() != SocketOpen {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(s.ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, frame); err != nil {
		return fmt.Errorf("socket send: %w", err)
	}
	return nil
}

// Close tears the socket down with a normal closure so no reconnect is
// scheduled. It does not block; wait on Done for completion.
func (s *Socket) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.state.Store(int32(SocketClosed))
		go func() {
			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "session closed")
			}
			s.cancel()
		}()
	})
}

func (s *Socket) run(sender Sender) {
	defer close(s.done)

	conn, _, err := websocket.Dial(s.ctx, s.Endpoint(), nil)
	if err != nil {
		s.finish(sender, websocket.StatusAbnormalClosure, err)
		return
	}
	conn.SetReadLimit(readLimit)

	s.mu.Lock()
	if s.IsClosed() {
		s.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "session closed")
		return
	}
	s.conn = conn
	s.mu.Unlock()

	if err := s.write(conn, NewSubscribe(s.opts.ConversationID)); err != nil {
		conn.CloseNow()
		s.finish(sender, websocket.StatusAbnormalClosure, err)
		return
	}
	s.state.Store(int32(SocketOpen))
	s.log.Info("ws_connected")
	sender.Send(SocketConnectedEvent{Socket: s})

	hbCtx, hbCancel := context.WithCancel(s.ctx)
	hbDone := make(chan struct{})
	go s.heartbeat(hbCtx, conn, hbDone)

	code, err := s.readLoop(conn, sender)

	hbCancel()
	<-hbDone
	conn.CloseNow()
	s.finish(sender, code, err)
}

// finish records the closed state and reports unexpected closures.
func (s *Socket) finish(sender Sender, code websocket.StatusCode, err error) {
	s.state.Store(int32(SocketClosed))
	if s.IsClosed() {
		s.log.Info("ws_closed", "reason", "local")
		return
	}
	s.log.Warn("ws_closed", "code", int(code), "error", err)
	sender.Send(SocketClosedEvent{Socket: s, Code: code, Err: err})
}

func (s *Socket) readLoop(conn *websocket.Conn, sender Sender) (websocket.StatusCode, error) {
	for {
		_, data, err := conn.Read(s.ctx)
		if err != nil {
			code := websocket.CloseStatus(err)
			if code == -1 {
				code = websocket.StatusAbnormalClosure
			}
			return code, err
		}
		s.deliver(data, sender)
	}
}

// deliver decodes one frame and forwards it. Nothing is forwarded once the
// socket is closed.
func (s *Socket) deliver(data []byte, sender Sender) {
	if s.IsClosed() {
		return
	}
	ev, err := DecodeFrame(data)
	if err != nil {
		s.log.Warn("frame_decode_failed", "error", err)
		sender.Send(FrameWarning{Message: err.Error()})
		return
	}
	sender.Send(ev)
}

func (s *Socket) heartbeat(ctx context.Context, conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(s.opts.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.write(conn, NewPing()); err != nil {
				s.log.Debug("ws_ping_failed", "error", err)
				return
			}
		}
	}
}

func (s *Socket) write(conn *websocket.Conn, frame any) error {
	ctx, cancel := context.WithTimeout(s.ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, frame)
}
