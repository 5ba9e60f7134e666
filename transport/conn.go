package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/hitakshiA/havklo/common"
)

const (
	// DefaultHandshakeTimeout bounds how long Dial waits for the upgrade.
	DefaultHandshakeTimeout = 10 * time.Second
	// DefaultWriteTimeout bounds a single WriteMessage call.
	DefaultWriteTimeout = 5 * time.Second
)

// Conn wraps a gorilla/websocket connection with a serialized writer, since
// the underlying library forbids concurrent writes from multiple goroutines.
type Conn struct {
	ws *gws.Conn

	writeMu      sync.Mutex
	writeTimeout time.Duration

	closeOnce sync.Once
}

// Dial opens a WebSocket connection to url, sending headers with the
// upgrade request. The dial itself respects ctx's deadline/cancellation.
func Dial(ctx context.Context, url string, headers http.Header) (*Conn, error) {
	dialer := &gws.Dialer{HandshakeTimeout: DefaultHandshakeTimeout}
	ws, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		detail := err.Error()
		kind := common.KindHTTP
		if resp != nil {
			detail = resp.Status + ": " + detail
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				kind = common.KindInvalidCredential
			}
		}
		return nil, common.Tagf(kind, "transport: dial %s: %s", url, detail)
	}
	return &Conn{ws: ws, writeTimeout: DefaultWriteTimeout}, nil
}

// ReadMessage blocks for the next text or binary frame and returns its
// payload. Control frames (ping/pong/close) are handled internally by the
// gorilla library and never surface here.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, common.Tag(common.KindChannelClosed, err)
	}
	return data, nil
}

// WriteMessage sends a single text frame, serialized against concurrent
// writers and bounded by the connection's write timeout.
func (c *Conn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return common.Tag(common.KindHTTP, err)
	}
	if err := c.ws.WriteMessage(gws.TextMessage, data); err != nil {
		return common.Tag(common.KindHTTP, err)
	}
	return nil
}

// SetReadDeadline arms the watchdog for the next ReadMessage call.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

// Ping writes a control ping frame, used by the session layer's heartbeat
// watchdog independent of application-level ping/pong frames.
func (c *Conn) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return common.Tag(common.KindHTTP, err)
	}
	return c.ws.WriteMessage(gws.PingMessage, nil)
}

// Close sends a normal closure frame and tears down the connection. It is
// safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(gws.CloseMessage,
			gws.FormatCloseMessage(gws.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}
