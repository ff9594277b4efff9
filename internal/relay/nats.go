package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dmitrijs2005/gophwallet/internal/logging"
)

// DialNATS connects to the bus with reconnects logged through logger.
func DialNATS(url string, logger logging.Logger) (*nats.Conn, error) {
	ctx := context.Background()
	opts := []nats.Option{
		nats.Name("gophwallet-relay"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn(ctx, "nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info(ctx, "nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info(ctx, "nats connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// NATSServer answers <prefix>.connect, <prefix>.disconnect and
// <prefix>.address requests. A prefix addresses one wallet process.
type NATSServer struct {
	conn    *nats.Conn
	prefix  string
	h       Handler
	limiter *RateLimiter
	logger  logging.Logger

	// mu guards stopped; once set no handler goroutine is added to wg.
	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewNATSServer serves h on the subjects under prefix.
func NewNATSServer(conn *nats.Conn, prefix string, h Handler, limiter *RateLimiter, logger logging.Logger) *NATSServer {
	return &NATSServer{
		conn:    conn,
		prefix:  prefix,
		h:       h,
		limiter: limiter,
		logger:  logger.With("module", "relay-nats"),
	}
}

// spawn runs fn on its own goroutine unless the server is stopping. It
// reports whether fn was started.
func (s *NATSServer) spawn(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
	return true
}

// stop refuses further handlers and waits for running ones. Callbacks
// still in flight after unsubscribing are dropped by spawn.
func (s *NATSServer) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *NATSServer) subject(op string) string {
	return s.prefix + "." + op
}

// Run subscribes to every operation subject and blocks until ctx is done.
// Each message is served on its own goroutine since connect calls wait for
// a human.
func (s *NATSServer) Run(ctx context.Context) error {
	var subs []*nats.Subscription
	defer func() {
		for _, sub := range subs {
			_ = sub.Unsubscribe()
		}
		s.stop()
	}()

	for _, op := range []string{OpConnect, OpDisconnect, OpAddress} {
		sub, err := s.conn.Subscribe(s.subject(op), func(msg *nats.Msg) {
			if msg.Reply == "" {
				return
			}
			s.spawn(func() {
				if err := msg.Respond(s.handle(ctx, msg.Subject, msg.Data)); err != nil {
					s.logger.Warn(ctx, "nats respond failed", "subject", msg.Subject, "err", err)
				}
			})
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", s.subject(op), err)
		}
		subs = append(subs, sub)
		s.logger.Debug(ctx, "subscribed", "subject", s.subject(op))
	}

	<-ctx.Done()
	return nil
}

type originField struct {
	Origin string `json:"origin"`
}

// handle serves one message and returns the encoded result.
func (s *NATSServer) handle(ctx context.Context, subject string, data []byte) []byte {
	op, ok := strings.CutPrefix(subject, s.prefix+".")
	if !ok {
		op = subject
	}
	ctx = logging.WithFields(ctx, "request_id", NewRequestID(), "subject", subject)

	var body originField
	_ = json.Unmarshal(data, &body)
	if !s.limiter.Allow(body.Origin) {
		return []byte(`{"err":"rate limited"}`)
	}

	res := Dispatch(ctx, s.h, op, data)
	if res.Failed() {
		s.logger.Debug(ctx, "relay call failed", "err", res.Err)
	}
	out, err := json.Marshal(res)
	if err != nil {
		out, _ = json.Marshal(map[string]string{"err": err.Error()})
	}
	return out
}
