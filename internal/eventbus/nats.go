package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Anoka2002/codecraftagent/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher sends generation events to subscribers
type Publisher interface {
	Publish(ctx context.Context, event models.GenerationEvent) error
}

var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = NopPublisher{}
)

// NATSPublisher publishes generation events on core NATS subjects
type NATSPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// Connect dials NATS. Reconnects are handled by the client library.
func Connect(url string, logger *zap.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("codecraft"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to nats at %s", url)
	}

	return &NATSPublisher{conn: nc, logger: logger}, nil
}

// Publish encodes the event as JSON and publishes it on event.Subject()
func (p *NATSPublisher) Publish(_ context.Context, event models.GenerationEvent) error {
	if p == nil || p.conn == nil {
		return nats.ErrConnectionClosed
	}

	data, err := Encode(event)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(event.Subject(), data); err != nil {
		return errors.Wrapf(err, "publish %s", event.Subject())
	}
	return nil
}

// Ping reports whether the connection is usable
func (p *NATSPublisher) Ping(_ context.Context) error {
	if p == nil || p.conn == nil {
		return nats.ErrConnectionClosed
	}
	if status := p.conn.Status(); status != nats.CONNECTED {
		return errors.Newf("nats connection %s", status)
	}
	return nil
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// Encode serializes an event for the wire
func Encode(event models.GenerationEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, "encode generation event")
	}
	return data, nil
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.GenerationEvent) error {
	return nil
}
