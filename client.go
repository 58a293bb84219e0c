package wamd

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	wabinary "github.com/opd-ai/wamd/binary"
	"github.com/opd-ai/wamd/store"
	"github.com/opd-ai/wamd/transport"
	"github.com/opd-ai/wamd/types"
)

var (
	// ErrNotConnected is returned when an operation needs a live
	// transport and there is none.
	ErrNotConnected = errors.New("not connected")
	// ErrAlreadyConnected is returned by Connect when a transport is
	// already up.
	ErrAlreadyConnected = errors.New("already connected")
)

// EventHandler receives every event the client emits. Handlers run on the
// receive goroutine, so they must not block.
type EventHandler func(evt Event)

// defaultKeepAliveInterval is how often the client pings the server once
// connected.
const defaultKeepAliveInterval = 30 * time.Second

// Client is the top-level connection to the multidevice servers: it owns
// the encrypted transport, the device record, and the event handlers.
type Client struct {
	store store.DeviceStore

	mu        sync.Mutex
	device    *store.Device
	transport *transport.NoiseTransport
	stop      chan struct{}

	handlersMu sync.RWMutex
	handlers   []EventHandler

	connected atomic.Bool
	loggedIn  atomic.Bool

	// KeepAliveInterval is the delay between keepalive pings. Change it
	// before Connect; zero means the default.
	KeepAliveInterval time.Duration
}

// NewClient creates a client backed by the given device store.
func NewClient(deviceStore store.DeviceStore) *Client {
	return &Client{store: deviceStore}
}

// AddEventHandler registers a handler called for every emitted event.
func (c *Client) AddEventHandler(handler EventHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers = append(c.handlers, handler)
}

func (c *Client) dispatch(evt Event) {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	for _, handler := range c.handlers {
		handler(evt)
	}
}

// loadDevice pulls the device record from the store and updates the
// logged-in flag.
func (c *Client) loadDevice() error {
	device, err := c.store.GetFirstDevice()
	if err != nil {
		return fmt.Errorf("load device: %w", err)
	}
	c.mu.Lock()
	c.device = device
	c.mu.Unlock()
	c.loggedIn.Store(device.IsLoggedIn())
	return nil
}

// Connect dials the server, runs the handshake, and starts the receive
// loop. Without a paired device the connection still comes up so the
// server can start the pairing flow.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.loadDevice(); err != nil {
		return err
	}

	socket, err := transport.DialWebSocket(ctx, transport.DefaultURL)
	if err != nil {
		return err
	}
	if err := c.connectSocket(socket); err != nil {
		socket.Close()
		return err
	}
	return nil
}

// connectSocket frames the socket, runs the client side of the handshake,
// and spawns the receive and keepalive loops.
func (c *Client) connectSocket(socket transport.Socket) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport != nil {
		return ErrAlreadyConnected
	}

	var staticPriv []byte
	if c.device != nil && len(c.device.NoiseKeyPriv) == 32 {
		staticPriv = c.device.NoiseKeyPriv
	}

	framed := transport.NewFramedConn(socket)
	noiseTransport, err := transport.RunClientHandshake(framed, staticPriv)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	c.transport = noiseTransport
	c.stop = make(chan struct{})
	c.connected.Store(true)

	logrus.WithFields(logrus.Fields{
		"function": "connectSocket",
		"package":  "wamd",
	}).Info("Transport established")

	go c.receiveLoop(noiseTransport, c.stop)
	go c.keepAliveLoop(noiseTransport, c.stop)
	return nil
}

// receiveLoop decodes incoming frames into nodes and hands them to
// handleNode until the transport drops.
func (c *Client) receiveLoop(t *transport.NoiseTransport, stop chan struct{}) {
	for {
		frame, err := t.ReceiveDecrypted()
		if err != nil {
			c.teardown(stop)
			select {
			case <-stop:
			default:
				c.dispatch(Disconnected{Reason: err.Error()})
			}
			return
		}

		node, err := wabinary.Unmarshal(frame)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "receiveLoop",
				"package":  "wamd",
				"error":    err,
			}).Warn("Discarding undecodable frame")
			continue
		}
		c.handleNode(node)
	}
}

// handleNode consumes the node kinds the client reacts to itself and
// forwards everything, consumed or not, as a NodeReceived event.
func (c *Client) handleNode(node *wabinary.Node) {
	logrus.WithFields(logrus.Fields{
		"function": "handleNode",
		"package":  "wamd",
		"tag":      node.Tag,
	}).Debug("Incoming node")

	switch node.Tag {
	case "success":
		c.loggedIn.Store(true)
		c.dispatch(Connected{})
	case "failure":
		c.handleFailure(node)
	case "stream:error":
		c.handleStreamError(node)
	case "iq":
		if pairDevice, ok := node.GetChildByTag("pair-device"); ok {
			c.dispatch(QR{Codes: pairingRefs(pairDevice)})
		}
	}
	c.dispatch(NodeReceived{Node: node})
}

// pairingRefs collects the ref payloads from a pair-device node.
func pairingRefs(pairDevice *wabinary.Node) []string {
	var codes []string
	for _, child := range pairDevice.GetChildren() {
		if child.Tag != "ref" {
			continue
		}
		if data := child.GetBytes(); data != nil {
			codes = append(codes, string(data))
		}
	}
	return codes
}

func (c *Client) handleFailure(node *wabinary.Node) {
	reason := FailureGeneric
	if raw, ok := node.AttrString("reason"); ok {
		if code, err := strconv.Atoi(raw); err == nil {
			reason = ConnectFailureReason(code)
		}
	}

	switch {
	case reason == FailureTempBanned:
		var code TempBanReason
		if raw, ok := node.AttrString("code"); ok {
			if n, err := strconv.Atoi(raw); err == nil {
				code = TempBanReason(n)
			}
		}
		var expire time.Duration
		if raw, ok := node.AttrString("expire"); ok {
			if n, err := strconv.Atoi(raw); err == nil {
				expire = time.Duration(n) * time.Second
			}
		}
		c.dispatch(TemporaryBan{Code: code, Expire: expire})
	case reason.IsLoggedOut():
		c.loggedIn.Store(false)
		c.dispatch(LoggedOut{OnConnect: true, Reason: reason})
	default:
		c.dispatch(Disconnected{Reason: reason.String()})
	}
}

func (c *Client) handleStreamError(node *wabinary.Node) {
	if conflict, ok := node.GetChildByTag("conflict"); ok {
		if kind, _ := conflict.AttrString("type"); kind == "replaced" {
			c.dispatch(StreamReplaced{})
			return
		}
	}
	code, _ := node.AttrString("code")
	c.dispatch(Disconnected{Reason: "stream error " + code})
}

// keepAliveLoop pings the server on a timer and reports timeouts and
// recovery through events.
func (c *Client) keepAliveLoop(t *transport.NoiseTransport, stop chan struct{}) {
	interval := c.KeepAliveInterval
	if interval <= 0 {
		interval = defaultKeepAliveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	errorCount := 0
	var lastSuccess time.Time
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ping := wabinary.NewNode("iq").
			WithAttr("to", types.DefaultUserServer).
			WithAttr("type", "get").
			WithAttr("xmlns", "w:p").
			WithAttr("id", GenerateMessageID()).
			WithChildren(*wabinary.NewNode("ping"))

		data, err := wabinary.Marshal(ping)
		if err == nil {
			err = t.SendEncrypted(data)
		}
		if err != nil {
			errorCount++
			c.dispatch(KeepAliveTimeout{ErrorCount: errorCount, LastSuccess: lastSuccess})
			continue
		}
		if errorCount > 0 {
			errorCount = 0
			c.dispatch(KeepAliveRestored{})
		}
		lastSuccess = time.Now()
	}
}

// teardown closes the transport and clears connection state. Safe to call
// from any goroutine and more than once.
func (c *Client) teardown(stop chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == stop && c.transport != nil {
		c.transport.Close()
		c.transport = nil
		close(stop)
	}
	c.connected.Store(false)
}

// Disconnect closes the transport. The session survives; Connect brings
// it back.
func (c *Client) Disconnect() {
	c.mu.Lock()
	stop := c.stop
	c.mu.Unlock()
	if stop != nil {
		c.teardown(stop)
	}
}

// Logout unpairs the device, deletes its record, and disconnects.
func (c *Client) Logout() error {
	c.mu.Lock()
	device := c.device
	c.device = nil
	c.mu.Unlock()

	if device != nil && device.ID != nil {
		if err := c.store.Delete(*device.ID); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}
	c.loggedIn.Store(false)
	c.Disconnect()
	c.dispatch(LoggedOut{OnConnect: false, Reason: FailureLoggedOut})
	return nil
}

// IsConnected reports whether the transport is up.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// IsLoggedIn reports whether a paired session exists.
func (c *Client) IsLoggedIn() bool {
	return c.loggedIn.Load()
}

// OwnID returns our JID, or nil before pairing.
func (c *Client) OwnID() *types.JID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return nil
	}
	return c.device.ID
}

// SendNode encodes a node and sends it over the encrypted transport.
func (c *Client) SendNode(node *wabinary.Node) error {
	c.mu.Lock()
	t := c.transport
	c.mu.Unlock()
	if t == nil {
		return ErrNotConnected
	}

	data, err := wabinary.Marshal(node)
	if err != nil {
		return fmt.Errorf("send node: %w", err)
	}
	return t.SendEncrypted(data)
}

// GenerateMessageID returns a fresh outgoing message ID: "3EB0" followed
// by 18 hex characters derived from the time and random bytes.
func GenerateMessageID() types.MessageID {
	data := make([]byte, 8, 8+5+16)
	binary.BigEndian.PutUint64(data, uint64(time.Now().Unix()))
	data = append(data, "@c.us"...)
	random := make([]byte, 16)
	_, _ = rand.Read(random)
	data = append(data, random...)

	hash := sha256.Sum256(data)
	return types.MessageID("3EB0" + hex.EncodeToString(hash[:9]))
}
