package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/luna/lunago/internal/metrics"
)

// writeTimeout bounds a single SSE write so one stalled client cannot pin
// a goroutine forever.
const writeTimeout = 10 * time.Second

// client wraps one SSE connection and tracks bytes sent.
type client struct {
	w         http.ResponseWriter
	rc        *http.ResponseController
	ip        string
	bytesSent int64
	logger    *slog.Logger
}

// sendJSON marshals v and sends it as a single SSE data message.
func (c *client) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal sse payload")
	}
	return c.sendRaw(data)
}

// sendRaw sends pre-marshalled JSON as an SSE data message and flushes.
func (c *client) sendRaw(data []byte) error {
	if err := c.rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		c.logger.Debug("could not set write deadline", "remote_ip", c.ip, "error", err)
	}
	n, err := fmt.Fprintf(c.w, "data: %s\n\n", data)
	if err != nil {
		return errors.Wrap(err, "write sse message")
	}
	if err := c.rc.Flush(); err != nil {
		return errors.Wrap(err, "flush sse message")
	}
	c.bytesSent += int64(n)
	metrics.IncStreamMessages()
	metrics.AddStreamBytes(int64(n))
	return nil
}

// sendKeepalive sends an SSE comment line to hold the connection open.
func (c *client) sendKeepalive() error {
	if err := c.rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		c.logger.Debug("could not set write deadline", "remote_ip", c.ip, "error", err)
	}
	n, err := fmt.Fprint(c.w, ": keepalive\n\n")
	if err != nil {
		return errors.Wrap(err, "write keepalive")
	}
	if err := c.rc.Flush(); err != nil {
		return errors.Wrap(err, "flush keepalive")
	}
	c.bytesSent += int64(n)
	metrics.AddStreamBytes(int64(n))
	return nil
}
