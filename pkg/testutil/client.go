package testutil

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"unistore/internal/liveview"
	"unistore/view"
)

// Client is a websocket client for driving a liveview server in tests.
type Client struct {
	conn *websocket.Conn
}

// DialServer connects a websocket client to the environment's server.
func DialServer(srv *liveview.Server) (*Client, error) {
	url := fmt.Sprintf("ws://%s/ws", srv.Addr())
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() {
	c.conn.Close()
}

// SendAction writes one action object to the server.
func (c *Client) SendAction(action map[string]any) error {
	if err := c.conn.WriteJSON(action); err != nil {
		return fmt.Errorf("failed to send action: %w", err)
	}
	return nil
}

// ReadMessage reads the next server message, failing after the timeout.
func (c *Client) ReadMessage(timeout time.Duration) (liveview.Message, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return liveview.Message{}, err
	}
	var msg liveview.Message
	if err := c.conn.ReadJSON(&msg); err != nil {
		return liveview.Message{}, fmt.Errorf("failed to read message: %w", err)
	}
	return msg, nil
}

// ReadFrames reads messages until one carries frames. Error messages
// received along the way fail the read.
func (c *Client) ReadFrames(timeout time.Duration) ([]view.Frame, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("no frames within %s", timeout)
		}
		msg, err := c.ReadMessage(remaining)
		if err != nil {
			return nil, err
		}
		switch msg.Kind {
		case liveview.KindFrames:
			return msg.Frames, nil
		case liveview.KindError:
			return nil, fmt.Errorf("server rejected action: %s", msg.Error)
		}
	}
}

// ReadError reads messages until one carries an error. Frame messages
// received along the way are discarded.
func (c *Client) ReadError(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", fmt.Errorf("no error within %s", timeout)
		}
		msg, err := c.ReadMessage(remaining)
		if err != nil {
			return "", err
		}
		if msg.Kind == liveview.KindError {
			return msg.Error, nil
		}
	}
}
