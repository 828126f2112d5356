package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

// outFrame is one queued outbound write. close frames ride the same queue
// so anything enqueued before them still reaches the wire first.
type outFrame struct {
	close bool
	data  []byte
}

// Client is one live socket. receive and onClose are wired by the owning
// handler; the client itself only moves bytes.
type Client struct {
	ID      string
	Session *Session
	Send    chan outFrame

	conn    *websocket.Conn
	ctx     context.Context
	cancel  context.CancelFunc
	receive func(*Client, []byte)
	onClose func(*Client)

	closeOnce sync.Once
}

func newClient(id string, sess *Session, conn *websocket.Conn, receive func(*Client, []byte), onClose func(*Client)) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:      id,
		Session: sess,
		Send:    make(chan outFrame, 256),
		conn:    conn,
		ctx:     ctx,
		cancel:  cancel,
		receive: receive,
		onClose: onClose,
	}
}

// Start launches the read/write pumps. One goroutine pair per connection;
// everything else about this socket happens on those two.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// Enqueue hands a frame to the write pump. A full buffer means a slow
// consumer: the frame is dropped and the reporting is the caller's call.
func (c *Client) Enqueue(data []byte) bool {
	select {
	case c.Send <- outFrame{data: data}:
		return true
	case <-c.ctx.Done():
		return false
	default:
		return false
	}
}

// Shutdown closes the socket gracefully: the close frame queues behind
// any pending writes. Falls back to an immediate close when the queue is
// already jammed.
func (c *Client) Shutdown(code int, reason string) {
	frame := outFrame{close: true, data: websocket.FormatCloseMessage(code, reason)}
	select {
	case c.Send <- frame:
	case <-c.ctx.Done():
	default:
		c.CloseWithCode(code, reason)
	}
}

// CloseWithCode sends a close control frame immediately and tears the
// connection down. Safe to call multiple times and from any goroutine.
func (c *Client) CloseWithCode(code int, reason string) {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
			log.Debug().Err(err).Str("clientID", c.ID).Msg("ws: close control write failed")
		}
		c.cancel()
		_ = c.conn.Close()
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case frame, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if frame.close {
				_ = c.conn.WriteMessage(websocket.CloseMessage, frame.data)
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(frame.data); err != nil {
				_ = w.Close()
				return
			}
			_ = w.Close()

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.onClose(c)
		c.cancel()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("clientID", c.ID).Msg("ws: unexpected close")
			}
			return
		}
		c.receive(c, data)
	}
}
