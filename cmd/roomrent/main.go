package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"roomrenting/internal/api"
	"roomrenting/internal/config"
	"roomrenting/internal/events"
	"roomrenting/internal/logging"
	"roomrenting/internal/session"
	"roomrenting/internal/workflow"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const usage = `usage: roomrent [-config path] <command> [flags]

commands:
  signup        create an account
  login         log in and store the session
  logout        drop the stored session
  whoami        show the current session
  rooms         list rooms (-available to filter)
  buildings     list buildings
  quote         price a stay without booking
  book          book and pay for a room
  bookings      list all bookings (admin, -export writes xlsx)
  admin         add-building | add-room | set-availability
`

// app holds everything a command needs.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	client   *api.Client
	sessions *session.Manager
	bus      *events.EventBus
	out      io.Writer
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", workflow.Message(err))
		fmt.Fprintln(os.Stderr, "detail:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("roomrent", flag.ContinueOnError)
	fs.SetOutput(out)
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "configs/config.yaml"
	}
	configPath := fs.String("config", defaultConfig, "path to config file")
	fs.Usage = func() { fmt.Fprint(out, usage) }
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, closeFn, err := newApp(cfg, out)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
}

func newApp(cfg *config.Config, out io.Writer) (*app, func(), error) {
	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(baseLogger, "cli", "profile", cfg.Session.Profile)

	closers := []func(){}
	if closer != nil {
		closers = append(closers, func() { _ = closer.Close() })
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	client := api.NewClient(cfg.API, baseLogger)
	if redisClient != nil {
		client.UseRedisCache(redisClient, cfg.API.CacheTTL())
	}

	store, err := session.NewStore(cfg.Session, redisClient, baseLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("init session store: %w", err)
	}

	bus := events.NewEventBus()
	bus.SubscribeAll(func(e *events.Event) error {
		var p events.WorkflowEventPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		logger.Debug().Str("event", e.Type).Str("state", p.State).Int64("booking_id", p.BookingID).Msg("workflow event")
		return nil
	})

	a := &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		sessions: session.NewManager(store, cfg.Session, baseLogger),
		bus:      bus,
		out:      out,
	}
	closeFn := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return a, closeFn, nil
}

// initRedis returns nil when redis is not configured or unreachable, unless
// the session store depends on it.
func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := session.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		if cfg.Session.Store == config.SessionStoreRedis {
			// The failover store takes over until redis comes back.
			logger.Warn().Err(err).Msg("redis unreachable, sessions fall back to memory")
			return redisClient
		}
		logger.Warn().Err(err).Msg("redis connection failed, continuing without cache")
		_ = redisClient.Close()
		return nil
	}

	logger.Debug().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "signup":
		return a.signup(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "rooms":
		return a.rooms(ctx, args)
	case "buildings":
		return a.buildings(ctx)
	case "quote":
		return a.quote(ctx, args)
	case "book":
		return a.book(ctx, args)
	case "bookings":
		return a.bookings(ctx, args)
	case "admin":
		return a.admin(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// authed returns the current session and a client bound to its token.
func (a *app) authed(ctx context.Context) (*session.Session, *api.Client, error) {
	sess, err := a.sessions.Current(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sess, a.client.WithToken(sess.Token), nil
}
