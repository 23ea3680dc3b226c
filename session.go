package blizzard

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// State is a Session's position in the lifecycle state machine of spec
// §4.9: OPENING -> READY -> CLOSING -> CLOSED.
type State int32

const (
	StateOpening State = iota
	StateReady
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventKind selects the payload of an Event delivered on Session.Events().
type EventKind int

const (
	// EventReady fires once, when the handshake completes (spec §4.9).
	EventReady EventKind = iota
	// EventEnd fires when the session transitions to CLOSED.
	EventEnd
	// EventFatal fires when a fatal, unrecoverable session error occurs
	// (spec §4.8: id==0 + INTERNAL escalates here; also raw transport
	// errors, per spec §7).
	EventFatal
)

// Event is delivered on Session.Events(). Err is populated only for
// EventFatal.
type Event struct {
	Kind EventKind
	Err  error
}

// Session is one bidirectional Blizzard connection (spec §3 "Session
// state"). It owns its transport exclusively. The sequence, request and
// method tables are also reached from the caller's goroutine (Request,
// Expose) and each guards itself with a mutex; the reassembly streams are
// touched only from the read loop started by Run.
type Session struct {
	conn       net.Conn
	instigator bool
	id         string

	opts options

	ids      *idAllocator
	methods  *methodTable
	requests *requestTable
	streams  *reassemblyBuffer
	disp     *dispatcher

	out    chan outboundFrame
	events chan Event

	state          atomic.Int32
	cancel         context.CancelFunc
	handshakeSent  bool // touched only from Run/readLoop, never concurrently

	fatalOnce sync.Once
}

// NewSession wraps conn as a Blizzard session. instigator must be true on
// the side that opened the connection (spec §3).
func NewSession(conn net.Conn, instigator bool, opt ...Option) *Session {
	opts := defaultOptions()
	for _, o := range opt {
		o(&opts)
	}

	s := &Session{
		conn:       conn,
		instigator: instigator,
		id:         uuid.NewString(),
		opts:       opts,
		ids:        newIDAllocator(instigator),
		methods:    newMethodTable(),
		requests:   newRequestTable(),
		streams:    newReassemblyBuffer(opts.maxStreamBytes),
		out:        make(chan outboundFrame, opts.bufferSize),
		events:     make(chan Event, 8),
	}
	s.opts.logger = withSession(s.opts.logger, s.id)
	s.state.Store(int32(StateOpening))
	s.disp = newDispatcher(s.ids, s.methods, s.requests, s.streams, s.out, s.reportFatal, s.opts.logger, s.opts.obs)
	return s
}

// ID is an opaque per-session identifier, useful for correlating log lines
// and metrics with a particular connection.
func (s *Session) ID() string { return s.id }

// Addr returns the remote address of the underlying transport.
func (s *Session) Addr() net.Addr { return s.conn.RemoteAddr() }

// State reports the session's current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Events returns the channel Session lifecycle events are delivered on.
func (s *Session) Events() <-chan Event { return s.events }

// Expose registers a method handler (spec §4.6, §6).
func (s *Session) Expose(name string, handler Handler) {
	s.methods.expose(name, handler)
}

// Request issues a call and arranges for completion to be invoked at most
// once when a matching reply arrives (spec §4.5, §6). Passing a nil
// completion sends a notification (id=0); use Notify for that case
// directly.
func (s *Session) Request(ctx context.Context, method string, params any, completion Completion) error {
	if s.State() >= StateClosing {
		return ErrSessionClosed
	}

	var id uint32
	if completion != nil {
		id = s.ids.next()
		s.requests.insert(id, completion)
	}

	raw, err := encodeRequest(method, params)
	if err != nil {
		if completion != nil {
			s.requests.take(id)
		}
		return err
	}

	if err := s.enqueue(ctx, FrameJSON, id, raw); err != nil {
		if completion != nil {
			s.requests.take(id)
		}
		return err
	}
	return nil
}

// Notify sends a fire-and-forget request: id=0, no reply expected or
// permitted (spec §6, testable property 8).
func (s *Session) Notify(method string, params any) error {
	return s.Request(context.Background(), method, params, nil)
}

// Reply sends a reply for a pending request id (spec §4.7). It is a
// programmer error to call Reply with id==0; use Notify or a handler's
// completion for id-less flows instead.
//
// TODO: binary replies are always buffer-then-terminate; incremental
// streaming of a single large reply is not implemented (spec §9).
func (s *Session) Reply(id uint32, payload any) error {
	if s.IsClosed() {
		return ErrTransportClosed
	}
	return s.disp.sendReply(id, payload)
}

// End transitions the session to CLOSING and closes the transport. Safe
// to call multiple times.
func (s *Session) End() error {
	if !s.transition(StateClosing) {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	return s.conn.Close()
}

// IsClosed reports whether the session has left the READY state.
func (s *Session) IsClosed() bool {
	return s.State() >= StateClosing
}

// transition moves the session to want if it isn't already there or past
// it, returning whether the transition happened.
func (s *Session) transition(want State) bool {
	for {
		cur := State(s.state.Load())
		if cur >= want {
			return false
		}
		if s.state.CompareAndSwap(int32(cur), int32(want)) {
			return true
		}
	}
}

// enqueue queues a frame for the write loop, respecting ctx cancellation.
// Per spec §4.1, the caller asserts writability before invoking a write; a
// session past READY is no longer writable and enqueue rejects outright
// rather than queuing a frame the write loop will never send.
func (s *Session) enqueue(ctx context.Context, typ FrameType, id uint32, payload []byte) error {
	if s.IsClosed() {
		return ErrTransportClosed
	}
	s.opts.obs.FrameEncoded(typ)
	select {
	case s.out <- outboundFrame{typ: typ, id: id, payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the session's read and write loops until ctx is canceled or
// an unrecoverable error occurs, mirroring the teacher's Conn.Run
// (errgroup pairing a read loop and a write loop over a shared context).
func (s *Session) Run(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	if s.instigator {
		if err := s.handshake(); err != nil {
			return err
		}
		s.handshakeSent = true
	}

	group, child := errgroup.WithContext(ctx)
	group.Go(func() error { return s.readLoop(child) })
	group.Go(func() error { return s.writeLoop(child) })

	err := group.Wait()
	s.closeConn()
	return err
}

// handshake sends the instigator's opening HANDSHAKE frame (spec §4.9,
// scenario S1: first bytes on the wire are 59 00 00 00 00 00 00 00 00 00).
func (s *Session) handshake() error {
	s.opts.obs.FrameEncoded(FrameHandshake)
	return writeFrame(s.conn, FrameHandshake, 0, nil)
}

func (s *Session) readLoop(ctx context.Context) error {
	p := newParser(s.conn)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_ = s.conn.SetReadDeadline(time.Now().Add(s.opts.idleTimeout * 2))

		ev, err := p.next()
		if err != nil {
			return err
		}

		if ev.kind == eventReady {
			// Both sides transition to READY on receiving a HANDSHAKE
			// (spec §4.9); the non-instigator gets here first and must
			// echo one back so the instigator also receives one.
			if !s.handshakeSent {
				if err := s.enqueue(ctx, FrameHandshake, 0, nil); err != nil {
					return err
				}
				s.handshakeSent = true
			}
			if s.transition(StateReady) {
				s.emit(Event{Kind: EventReady})
			}
			continue
		}

		s.disp.handle(ev)
	}
}

func (s *Session) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-s.out:
			if s.opts.rateLimiter != nil {
				s.opts.rateLimiter.Wait(headerSize + len(frame.payload))
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.idleTimeout * 2))
			if err := writeFrame(s.conn, frame.typ, frame.id, frame.payload); err != nil {
				return err
			}
		}
	}
}

// reportFatal is the dispatcher's onFatal callback (spec §4.8: id==0 +
// INTERNAL escalates as a fatal session error the peer cannot be told
// about).
func (s *Session) reportFatal(err error) {
	s.fatalOnce.Do(func() {
		s.opts.logger.Error("session fatal error", "error", err)
		if s.opts.onFatal != nil {
			s.opts.onFatal(err)
		}
		s.emit(Event{Kind: EventFatal, Err: err})
		if s.cancel != nil {
			s.cancel()
		}
	})
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.opts.logger.Debug("dropped event, channel full", "kind", ev.Kind)
	}
}

func (s *Session) closeConn() {
	s.state.Store(int32(StateClosed))
	s.emit(Event{Kind: EventEnd})
	_ = s.conn.Close()
}
