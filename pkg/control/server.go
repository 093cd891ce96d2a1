package control

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/resetline-protocol/resetline-go/pkg/log"
	"github.com/resetline-protocol/resetline-go/pkg/subsys"
	"github.com/resetline-protocol/resetline-go/pkg/version"
)

// DefaultPort is the TCP port control servers listen on by default.
const DefaultPort = 4750

// handshakeTimeout bounds the hello exchange on both sides.
const handshakeTimeout = 10 * time.Second

// OpRecord describes one dispatched line operation, as handed to the
// server's OnOperation observer.
type OpRecord struct {
	Time         time.Time
	ConnectionID string
	Controller   string
	Op           string
	Line         uint64
	Result       int32
}

// ServerConfig configures a control server.
type ServerConfig struct {
	// Address to listen on. Empty means all interfaces on DefaultPort.
	Address string

	// PSK enables session authentication when non-empty. Clients must
	// hold the same key.
	PSK []byte

	// MaxMessageSize is the maximum frame payload (default 64 KB).
	MaxMessageSize uint32

	// Logger receives frame, state and error events (optional).
	Logger log.Logger

	// OnOperation observes every dispatched line operation (optional).
	OnOperation func(OpRecord)
}

// Server serves a subsystem's controllers over the control protocol.
type Server struct {
	config ServerConfig
	sub    *subsys.Subsystem
	logger log.Logger

	listener net.Listener
	conns    map[*serverConn]struct{}
	connsMu  sync.Mutex

	running atomic.Bool
	wg      sync.WaitGroup
}

type serverConn struct {
	id     string
	conn   net.Conn
	framer *Framer
}

// NewServer creates a server that dispatches into sub.
func NewServer(sub *subsys.Subsystem, config ServerConfig) (*Server, error) {
	if sub == nil {
		return nil, errors.New("nil subsystem")
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	return &Server{
		config: config,
		sub:    sub,
		logger: log.OrNoop(config.Logger),
		conns:  make(map[*serverConn]struct{}),
	}, nil
}

// Start begins listening and accepting connections.
func (s *Server) Start() error {
	if s.running.Load() {
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.running.Store(true)

	s.logServerState("", "LISTENING", listener.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and all connections and waits for the
// connection goroutines to drain. Stop on a stopped server is a no-op.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}
	s.running.Store(false)

	s.listener.Close()

	s.connsMu.Lock()
	for sc := range s.conns {
		sc.conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	s.logServerState("LISTENING", "STOPPED", "")
	return nil
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnectionCount returns the number of live connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			s.logError("", fmt.Errorf("accept: %w", err))
			continue
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	sc := &serverConn{
		id:     uuid.New().String(),
		conn:   conn,
		framer: NewFramer(conn, s.config.MaxMessageSize),
	}
	sc.framer.SetLogger(s.logger, sc.id)

	s.logConnState(sc, "", "CONNECTED")

	s.connsMu.Lock()
	s.conns[sc] = struct{}{}
	s.connsMu.Unlock()

	defer func() {
		s.connsMu.Lock()
		delete(s.conns, sc)
		s.connsMu.Unlock()
		s.logConnState(sc, "CONNECTED", "DISCONNECTED")
	}()

	if err := s.handshake(sc); err != nil {
		s.logError(sc.id, fmt.Errorf("handshake: %w", err))
		return
	}

	s.serve(sc)
}

// handshake runs the server side of the hello exchange. With a PSK
// configured the server proves itself in the welcome and requires a
// valid client proof before any request is served.
func (s *Server) handshake(sc *serverConn) error {
	if err := sc.conn.SetDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return err
	}
	defer sc.conn.SetDeadline(time.Time{})

	frame, err := sc.framer.ReadFrame()
	if err != nil {
		return err
	}
	hello, err := DecodeHello(frame)
	if err != nil {
		return err
	}
	if !version.CompatibleString(hello.Version) {
		return fmt.Errorf("incompatible protocol version %q", hello.Version)
	}
	if len(hello.Nonce) != nonceSize {
		return fmt.Errorf("bad hello nonce length %d", len(hello.Nonce))
	}

	serverNonce, err := newNonce()
	if err != nil {
		return err
	}
	welcome := &Welcome{Version: version.Current, Nonce: serverNonce}

	var keys sessionKeys
	authenticated := len(s.config.PSK) > 0
	if authenticated {
		if keys, err = deriveKeys(s.config.PSK, hello.Nonce, serverNonce); err != nil {
			return err
		}
		welcome.Proof = sessionProof(keys.server, serverLabel, hello.Nonce, serverNonce)
	}

	data, err := EncodeWelcome(welcome)
	if err != nil {
		return err
	}
	if err := sc.framer.WriteFrame(data); err != nil {
		return err
	}

	if !authenticated {
		return nil
	}

	frame, err = sc.framer.ReadFrame()
	if err != nil {
		return err
	}
	confirm, err := DecodeConfirm(frame)
	if err != nil {
		return err
	}
	if !verifyProof(keys.client, clientLabel, hello.Nonce, serverNonce, confirm.Proof) {
		s.respond(sc, &Response{Status: StatusUnauthorized, Reason: "bad client proof"})
		return errors.New("bad client proof")
	}
	return nil
}

func (s *Server) serve(sc *serverConn) {
	for {
		frame, err := sc.framer.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && s.running.Load() {
				s.logError(sc.id, err)
			}
			return
		}

		req, err := DecodeRequest(frame)
		if err != nil {
			s.respond(sc, &Response{Status: StatusProtocol, Reason: err.Error()})
			return
		}

		if !s.respond(sc, s.handle(sc, req)) {
			return
		}
	}
}

func (s *Server) respond(sc *serverConn, resp *Response) bool {
	data, err := EncodeResponse(resp)
	if err != nil {
		s.logError(sc.id, err)
		return false
	}
	if err := sc.framer.WriteFrame(data); err != nil {
		s.logError(sc.id, err)
		return false
	}
	return true
}

func (s *Server) handle(sc *serverConn, req *Request) *Response {
	if req.Op == OpList {
		return s.handleList(req)
	}

	sop, ok := req.Op.Subsys()
	if !ok {
		return &Response{ID: req.ID, Status: StatusBadRequest, Reason: "unknown operation"}
	}
	cb, ok := s.sub.Lookup(req.Controller)
	if !ok {
		return &Response{
			ID:     req.ID,
			Status: StatusUnknownController,
			Reason: fmt.Sprintf("no controller %q", req.Controller),
		}
	}

	result := s.sub.Invoke(cb, sop, req.Line)

	if s.config.OnOperation != nil {
		s.config.OnOperation(OpRecord{
			Time:         time.Now(),
			ConnectionID: sc.id,
			Controller:   req.Controller,
			Op:           sop.String(),
			Line:         req.Line,
			Result:       result,
		})
	}

	return &Response{ID: req.ID, Status: StatusOK, Result: result}
}

func (s *Server) handleList(req *Request) *Response {
	blocks := s.sub.Controllers()
	infos := make([]ControllerInfo, 0, len(blocks))
	for _, cb := range blocks {
		info := ControllerInfo{
			Name:  cb.Dev.Name(),
			Lines: cb.LineCount,
		}
		if cb.Node != nil {
			info.Node = cb.Node.Path()
		}
		for _, op := range s.sub.Capabilities(cb) {
			info.Capabilities = append(info.Capabilities, op.String())
		}
		infos = append(infos, info)
	}
	return &Response{ID: req.ID, Status: StatusOK, Controllers: infos}
}

func (s *Server) logServerState(oldState, newState, addr string) {
	s.logger.Log(log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryState,
		State: &log.StateChangeEvent{
			Entity:   log.StateEntityServer,
			OldState: oldState,
			NewState: newState,
			Reason:   addr,
		},
	})
}

func (s *Server) logConnState(sc *serverConn, oldState, newState string) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: sc.id,
		Category:     log.CategoryState,
		State: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
		},
	})
}

func (s *Server) logError(connID string, err error) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Category:     log.CategoryError,
		Error:        &log.ErrorEventData{Message: err.Error()},
	})
}
