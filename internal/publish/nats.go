package publish

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/banshee-data/mrs1000/internal/monitoring"
)

// ConnectNATS dials the NATS server and returns a Publisher over the
// connection plus a close function that flushes pending messages.
func ConnectNATS(url, prefix string) (*Publisher, func(), error) {
	nc, err := nats.Connect(url,
		nats.Name("mrs1000-node"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			monitoring.Logf("publish: nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			monitoring.Logf("publish: nats reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}

	closeFn := func() {
		if err := nc.Drain(); err != nil {
			monitoring.Logf("publish: nats drain: %v", err)
		}
	}
	return NewPublisher(prefix, nc), closeFn, nil
}
