package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second

	defaultSendBuffer  = 128
	defaultReadLimit   = 1 << 20
	defaultReadTimeout = 60 * time.Second
)

// ConnectionOptions tunes a Connection; zero values fall back to defaults.
type ConnectionOptions struct {
	SendBuffer  int
	ReadLimit   int64
	ReadTimeout time.Duration
}

// Connection wraps a websocket and coordinates outbound writes via a buffered channel.
// It is safe for concurrent use.
type Connection struct {
	id string

	ws          *websocket.Conn
	send        chan []byte
	once        sync.Once
	closed      chan struct{}
	readTimeout time.Duration
}

// NewConnection constructs a Connection with a fresh id.
func NewConnection(ws *websocket.Conn, opts ConnectionOptions) *Connection {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = defaultReadLimit
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}

	c := &Connection{
		id:          uuid.NewString(),
		ws:          ws,
		send:        make(chan []byte, opts.SendBuffer),
		closed:      make(chan struct{}),
		readTimeout: opts.ReadTimeout,
	}
	ws.SetReadLimit(opts.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	})
	return c
}

func (c *Connection) ID() string { return c.id }

// Start launches the write loop. It must be called exactly once per connection.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Done is closed once the connection has been closed.
func (c *Connection) Done() <-chan struct{} { return c.closed }

// Send enqueues payload for delivery. If the client is slow and the buffer is full,
// the connection is closed to keep backpressure bounded.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.closed:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return ErrBufferExceeded
	}
}

// ReadMessage blocks for the next inbound data frame and refreshes the read deadline.
func (c *Connection) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	return data, nil
}

// Close marks the connection closed, stops the write loop and sends the close
// frame in the background. It never blocks the caller.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.closed)
		go c.shutdown(websocket.FormatCloseMessage(code, reason))
	})
}

// shutdown waits for the write lock, which a write to a stalled client may hold
// for up to writeWait, then tears the socket down.
func (c *Connection) shutdown(frame []byte) {
	_ = c.ws.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeWait))
	_ = c.ws.Close()
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.Close(websocket.CloseGoingAway, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseGoingAway, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}
