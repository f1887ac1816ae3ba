// internal/adapter/bus/nats.go

package bus

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"locbook/internal/config"
	"locbook/internal/logging"
)

// Subjects relayed to dashboards and watched by the snapshot
const (
	PlaceEvents  = "places.>"
	ConfigEvents = "config.>"
)

// Connect dials NATS with reconnect handling
func Connect(cfg config.NATSConfig) (*nats.Conn, error) {
	log := logging.With("nats")

	options := []nats.Option{
		nats.Name("locbook-api"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}

// StartEmbedded runs an in-process NATS server on host:port. Port -1 picks a
// free port. Used for local development and tests.
func StartEmbedded(host string, port int) (*server.Server, error) {
	opts := &server.Options{
		Host:   host,
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}

	s, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("unable to create NATS server: %w", err)
	}

	go s.Start()

	if !s.ReadyForConnections(10 * time.Second) {
		s.Shutdown()
		return nil, errors.New("NATS server not ready in time")
	}

	log := logging.With("nats")
	log.Info().Str("url", s.ClientURL()).Msg("started embedded NATS server")
	return s, nil
}
