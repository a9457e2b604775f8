package websocket

import (
	"context"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second

	// maxDropped consecutive missed broadcasts get a client evicted.
	maxDropped = 8
)

// Client is one kiosk or phone. It only listens: a data frame from the
// peer closes the connection.
type Client struct {
	hub     *Hub
	conn    *ws.Conn
	remote  string
	send    chan []byte
	dropped atomic.Int32
}

func NewClient(hub *Hub, conn *ws.Conn, remote string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		remote: remote,
		send:   make(chan []byte, sendBufferSize),
	}
}

// offer queues data without blocking. It returns false once the client has
// missed maxDropped broadcasts in a row.
func (c *Client) offer(data []byte) bool {
	select {
	case c.send <- data:
		c.dropped.Store(0)
		return true
	default:
		return c.dropped.Add(1) < maxDropped
	}
}

// Run serves the connection until the peer leaves, ctx ends or the hub
// evicts the client.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx = c.conn.CloseRead(ctx)
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(ws.StatusPolicyViolation, "client too slow")
				return
			}
			if err := c.write(ctx, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := c.write(ctx, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// write sends msg, or a ping when msg is nil.
func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if msg == nil {
		return c.conn.Ping(ctx)
	}
	return c.conn.Write(ctx, ws.MessageText, msg)
}
