package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/tickerboard/internal/config"
	"github.com/five82/tickerboard/internal/logging"
	"github.com/five82/tickerboard/internal/metrics"
	"github.com/five82/tickerboard/internal/reconcile"
	"github.com/five82/tickerboard/internal/remote"
	"github.com/five82/tickerboard/internal/session"
	"github.com/five82/tickerboard/internal/transport"
	"github.com/five82/tickerboard/internal/ui"
	"github.com/five82/tickerboard/internal/view"
)

// Options configure the tickerboard application.
type Options struct {
	ConfigPath   string
	PrefsPath    string        // empty uses default ~/.config/tickerboard/prefs.toml
	PollInterval time.Duration // zero uses the configured interval
	NoPush       bool          // run in poll-only mode
	Headless     bool          // log to stderr instead of drawing the board
}

// Run boots the client until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.PollInterval > 0 {
		cfg.Poll.Interval = config.Duration(opts.PollInterval)
	}

	logger, closer, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: opts.Headless,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	client, err := remote.NewClient(cfg.APIBind, remote.Slugs{
		Primary:   cfg.Instruments.Primary,
		Secondary: cfg.Instruments.Secondary,
	})
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if addr, err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
		logger.Warn().Err(err).Msg("metrics endpoint disabled")
	} else if addr != nil {
		logger.Info().Str("addr", addr.String()).Msg("metrics endpoint listening")
	}

	var sess *session.Session
	var push *transport.Push
	var pusher session.Pusher
	if cfg.PushEnabled() && !opts.NoPush {
		push = transport.NewPush(transport.PushOptions{
			URL:            cfg.PushURL(),
			ReconnectDelay: time.Duration(cfg.Push.ReconnectDelay),
			Logger:         logger,
		}, func(ev transport.Event) { sess.HandlePushEvent(ev) })
		pusher = push
	}

	sessOpts := session.Options{
		Remote:       client,
		Push:         pusher,
		Logger:       logger,
		PollInterval: time.Duration(cfg.Poll.Interval),
	}
	var sink *ui.ProgramSink
	if opts.Headless {
		sessOpts.Sink = view.NewLogSink(logger)
		sessOpts.Notifier = headlessNotifier(logger)
	} else {
		sink = ui.NewSink()
		sessOpts.Sink = sink
		sessOpts.Notifier = sink
	}
	sess = session.New(sessOpts)

	logger.Info().
		Str("api", client.BaseURL().String()).
		Bool("push", push != nil).
		Dur("poll_interval", time.Duration(cfg.Poll.Interval)).
		Msg("tickerboard starting")

	var program *ui.Program
	if !opts.Headless {
		program = ui.NewProgram(ui.Options{
			Context:    ctx,
			Controller: sess,
			Sink:       sink,
			PrefsPath:  opts.PrefsPath,
			Logger:     logger,
		})
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = sess.Run(ctx)
	}()
	if push != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = push.Run(ctx)
		}()
	}
	defer wg.Wait()
	defer cancel()

	if program == nil {
		<-ctx.Done()
		return nil
	}
	return program.Run()
}

func headlessNotifier(logger zerolog.Logger) reconcile.Notifier {
	return reconcile.NotifierFunc(func(total int) {
		logger.Info().Int("active", total).Msg("new trade signal")
	})
}
