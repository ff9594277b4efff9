// Package app wires the wallet daemon: storage, session, relay servers and
// the console.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/gophwallet/internal/cli"
	"github.com/dmitrijs2005/gophwallet/internal/config"
	"github.com/dmitrijs2005/gophwallet/internal/connect"
	"github.com/dmitrijs2005/gophwallet/internal/logging"
	"github.com/dmitrijs2005/gophwallet/internal/relay"
	"github.com/dmitrijs2005/gophwallet/internal/repositories"
	"github.com/dmitrijs2005/gophwallet/internal/securestore"
	"github.com/dmitrijs2005/gophwallet/internal/services"
	"github.com/dmitrijs2005/gophwallet/internal/session"
)

const (
	autoLockInterval = 5 * time.Second
	leaseTTL         = 15 * time.Second
)

// redisNamespace returns the session key prefix and the lease key of a
// wallet instance. The lease key sits outside the prefix so that clearing
// the session keeps it.
func redisNamespace(instance string) (prefix, leaseKey string) {
	base := "gophwallet:" + instance
	return base + ":session:", base + ":owner"
}

// natsSubject scopes the relay subjects to one wallet instance.
func natsSubject(c *config.Config) string {
	return c.NATSSubject + "." + c.Instance
}

// App owns the daemon's connections and the components built on them.
type App struct {
	config *config.Config
	logger logging.Logger

	repos       *repositories.Repositories
	redis       redis.UniversalClient
	lease       *session.Lease
	nats        *nats.Conn
	manager     *session.Manager
	wallet      services.WalletService
	coordinator *connect.Coordinator
	approver    *connect.Approver
	console     *cli.App
}

// NewApp opens storage and connections described by c. Console output goes
// to out, logs to logOut.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out, logOut io.Writer) (*App, error) {
	logger := logging.New(c.LogFormat, logOut)

	repos, err := repositories.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, repos: repos}

	store, err := app.sessionStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	surface := cli.NewSurface(out)
	var notifier connect.Notifier = surface
	if c.NATSURL != "" {
		conn, err := relay.DialNATS(c.NATSURL, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.nats = conn
		notifier = relay.NewBusNotifier(conn, natsSubject(c), surface)
	}

	app.manager = session.NewManager(logger)
	secure := securestore.New(repos.DB, app.manager, logger)
	app.wallet = services.NewWalletService(repos.DB, app.manager, secure, store, logger)

	flags := session.NewFlags(store)
	actions := session.NewActions(store)
	sig := connect.NewSignal()

	app.coordinator = connect.NewCoordinator(connect.Deps{
		Init:     app.wallet,
		Info:     secure,
		Finder:   connect.NewFinder(secure, flags, logger),
		Flags:    flags,
		Actions:  actions,
		Store:    store,
		Signal:   sig,
		Notifier: notifier,
	}, c.PollInterval, logger)

	app.approver = connect.NewApprover(secure, secure, flags, actions, sig, logger)
	app.console = cli.NewApp(app.wallet, app.approver, secure, surface, in)
	app.console.OnActivity(app.manager.Touch)

	return app, nil
}

// sessionStore picks Redis when an address is configured, memory otherwise.
// A Redis namespace is leased for the life of the process.
func (app *App) sessionStore(ctx context.Context) (session.Store, error) {
	if app.config.RedisAddr == "" {
		return session.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	prefix, leaseKey := redisNamespace(app.config.Instance)
	lease := session.NewLease(client, leaseKey, uuid.NewString(), leaseTTL)
	if err := lease.Acquire(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("instance %q: %w", app.config.Instance, err)
	}
	app.redis, app.lease = client, lease
	return session.NewRedisStore(client, prefix), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the relay and the console until the user exits, a signal
// arrives or a server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	app.initSignalHandler(cancelFunc)

	app.logger.Info(ctx, "Starting wallet...")

	limiter := relay.NewRateLimiter(app.config.RateLimitPerMinute)
	g, ctx := errgroup.WithContext(ctx)

	if app.config.HTTPAddr != "" {
		srv := relay.NewHTTPServer(app.config.HTTPAddr, app.coordinator, limiter, app.logger)
		g.Go(func() error { return srv.Run(ctx) })
	}

	if app.nats != nil {
		srv := relay.NewNATSServer(app.nats, natsSubject(app.config), app.coordinator, limiter, app.logger)
		g.Go(func() error { return srv.Run(ctx) })
	}

	if app.lease != nil {
		g.Go(func() error { return app.lease.Run(ctx) })
	}

	locker := session.NewAutoLocker(app.manager, app.wallet, app.config.IdleTimeout, app.logger)
	g.Go(func() error {
		locker.Run(ctx, autoLockInterval)
		return nil
	})

	g.Go(func() error {
		defer cancelFunc()
		return app.console.Run(ctx)
	})

	err := g.Wait()
	if errors.Is(err, session.ErrLeaseHeld) {
		// the namespace has a new owner now, leave its keys alone
		app.manager.Lock()
		return err
	}
	if lockErr := app.wallet.Lock(context.WithoutCancel(ctx)); lockErr != nil {
		err = errors.Join(err, lockErr)
	}
	return err
}

// Close releases connections and the database.
func (app *App) Close() error {
	var errs []error
	if app.nats != nil {
		app.nats.Close()
	}
	if app.lease != nil {
		errs = append(errs, app.lease.Release(context.Background()))
	}
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.repos != nil {
		errs = append(errs, app.repos.Close())
	}
	return errors.Join(errs...)
}
