package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// ipcCommand is the JSON structure sent to mpv's IPC socket.
type ipcCommand struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id,omitempty"`
}

// ipcMessage is any line received from mpv: a command reply or an event.
type ipcMessage struct {
	Data      any    `json:"data"`
	Error     string `json:"error"`
	RequestID int64  `json:"request_id"`
	Event     string `json:"event"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
}

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	readDeadline = 2 * time.Second
)

var errPropertyUnavailable = errors.New("mpv: property unavailable")

// client sends commands over short-lived connections.
type client struct {
	socketPath string
	timeout    time.Duration

	mu     sync.Mutex
	nextID int64
}

func newClient(socketPath string) *client {
	return &client{socketPath: socketPath, timeout: readDeadline}
}

// command sends one command and waits for its reply. Only connection failures are retried,
// so a command is never applied twice.
func (c *client) command(args ...any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	var (
		conn net.Conn
		err  error
	)
	for attempt := range maxRetries {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}
		if conn, err = net.Dial("unix", c.socketPath); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect after %d attempts: %w", maxRetries, err)
	}
	defer conn.Close()

	if err := writeCommand(conn, ipcCommand{Command: args, RequestID: id}); err != nil {
		return nil, err
	}

	if err := conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	// mpv broadcasts events to every client, so skip lines until the reply arrives.
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}

		var msg ipcMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal: %w", err)
		}
		if msg.Event != "" || msg.RequestID != id {
			continue
		}

		switch msg.Error {
		case "", "success":
			return msg.Data, nil
		case "property unavailable":
			return nil, errPropertyUnavailable
		default:
			return nil, fmt.Errorf("mpv error: %s", msg.Error)
		}
	}
}

// float reads a numeric property. An unavailable property reads as zero.
func (c *client) float(property string) (float64, error) {
	data, err := c.command("get_property", property)
	if errors.Is(err, errPropertyUnavailable) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	v, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("mpv: %s is %T, not a number", property, data)
	}
	return v, nil
}

func writeCommand(conn net.Conn, cmd ipcCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	// mpv requires newline-delimited JSON
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
