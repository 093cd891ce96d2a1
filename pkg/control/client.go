package control

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/resetline-protocol/resetline-go/pkg/log"
	"github.com/resetline-protocol/resetline-go/pkg/version"
)

// DefaultRequestTimeout bounds a single request/response exchange.
const DefaultRequestTimeout = 5 * time.Second

var (
	ErrClientClosed = errors.New("client is closed")

	// ErrResponseMismatch is returned when a response carries a
	// different id than the request it answers.
	ErrResponseMismatch = errors.New("response id does not match request")
)

// StatusError is returned when the server answers with a non-OK
// status.
type StatusError struct {
	Status Status
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("server returned %s", e.Status)
	}
	return fmt.Sprintf("server returned %s: %s", e.Status, e.Reason)
}

// ClientConfig configures a control client.
type ClientConfig struct {
	// PSK enables session authentication when non-empty. Must match
	// the server's key.
	PSK []byte

	// Timeout bounds dialing and each request/response exchange
	// (default DefaultRequestTimeout).
	Timeout time.Duration

	// MaxMessageSize is the maximum frame payload (default 64 KB).
	MaxMessageSize uint32

	// Logger receives frame and error events (optional).
	Logger log.Logger
}

// Client is the dialing side of the control protocol. Calls are
// serialized: one request is in flight at a time.
type Client struct {
	config ClientConfig
	logger log.Logger

	mu     sync.Mutex
	conn   net.Conn
	framer *Framer
	nextID uint32
	closed bool

	serverVersion string
}

// Dial connects to a control server and completes the handshake. With
// a PSK configured, the server's proof is verified before any request
// is sent.
func Dial(addr string, config ClientConfig) (*Client, error) {
	if config.Timeout == 0 {
		config.Timeout = DefaultRequestTimeout
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	logger := log.OrNoop(config.Logger)

	conn, err := net.DialTimeout("tcp", addr, config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	c := &Client{
		config: config,
		logger: logger,
		conn:   conn,
		framer: NewFramer(conn, config.MaxMessageSize),
	}
	c.framer.SetLogger(logger, "")

	if err := c.handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}
	return c, nil
}

// handshake runs the client side of the hello exchange.
func (c *Client) handshake() error {
	if err := c.conn.SetDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return err
	}
	defer c.conn.SetDeadline(time.Time{})

	clientNonce, err := newNonce()
	if err != nil {
		return err
	}
	data, err := EncodeHello(&Hello{Version: version.Current, Nonce: clientNonce})
	if err != nil {
		return err
	}
	if err := c.framer.WriteFrame(data); err != nil {
		return err
	}

	frame, err := c.framer.ReadFrame()
	if err != nil {
		return err
	}
	welcome, err := DecodeWelcome(frame)
	if err != nil {
		return err
	}
	if !version.CompatibleString(welcome.Version) {
		return fmt.Errorf("incompatible protocol version %q", welcome.Version)
	}
	if len(welcome.Nonce) != nonceSize {
		return fmt.Errorf("bad welcome nonce length %d", len(welcome.Nonce))
	}
	c.serverVersion = welcome.Version

	if len(c.config.PSK) == 0 {
		return nil
	}

	keys, err := deriveKeys(c.config.PSK, clientNonce, welcome.Nonce)
	if err != nil {
		return err
	}
	if !verifyProof(keys.server, serverLabel, clientNonce, welcome.Nonce, welcome.Proof) {
		return errors.New("bad server proof")
	}

	confirm := &Confirm{
		Proof: sessionProof(keys.client, clientLabel, clientNonce, welcome.Nonce),
	}
	if data, err = EncodeConfirm(confirm); err != nil {
		return err
	}
	return c.framer.WriteFrame(data)
}

// ServerVersion returns the protocol version the server announced.
func (c *Client) ServerVersion() string {
	return c.serverVersion
}

// Close closes the connection. Further calls fail with
// ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// List returns the controllers registered on the server.
func (c *Client) List() ([]ControllerInfo, error) {
	resp, err := c.roundTrip(&Request{Op: OpList})
	if err != nil {
		return nil, err
	}
	return resp.Controllers, nil
}

// Reset dispatches a reset pulse on one line. The result is the
// signed code the controller's callback returned.
func (c *Client) Reset(controller string, line uint64) (int32, error) {
	return c.invoke(OpReset, controller, line)
}

// Assert dispatches an assert on one line.
func (c *Client) Assert(controller string, line uint64) (int32, error) {
	return c.invoke(OpAssert, controller, line)
}

// Deassert dispatches a deassert on one line.
func (c *Client) Deassert(controller string, line uint64) (int32, error) {
	return c.invoke(OpDeassert, controller, line)
}

// Status queries one line's state: 1 asserted, 0 deasserted, negative
// on error.
func (c *Client) Status(controller string, line uint64) (int32, error) {
	return c.invoke(OpStatus, controller, line)
}

func (c *Client) invoke(op Op, controller string, line uint64) (int32, error) {
	resp, err := c.roundTrip(&Request{Op: op, Controller: controller, Line: line})
	if err != nil {
		return 0, err
	}
	return resp.Result, nil
}

// roundTrip sends one request and waits for its response, holding the
// connection for the duration of the exchange.
func (c *Client) roundTrip(req *Request) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}

	c.nextID++
	req.ID = c.nextID

	if err := c.conn.SetDeadline(time.Now().Add(c.config.Timeout)); err != nil {
		return nil, err
	}
	defer c.conn.SetDeadline(time.Time{})

	data, err := EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	if err := c.framer.WriteFrame(data); err != nil {
		return nil, fmt.Errorf("failed to send %s request: %w", req.Op, err)
	}

	frame, err := c.framer.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", req.Op, err)
	}
	resp, err := DecodeResponse(frame)
	if err != nil {
		return nil, err
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrResponseMismatch, resp.ID, req.ID)
	}
	if resp.Status != StatusOK {
		return nil, &StatusError{Status: resp.Status, Reason: resp.Reason}
	}
	return resp, nil
}
