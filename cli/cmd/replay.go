package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/newswire-io/restitch/adapter"
	adapterredis "github.com/newswire-io/restitch/adapter/redis"
	"github.com/newswire-io/restitch/adapter/webhook"
	"github.com/newswire-io/restitch/archive"
	"github.com/newswire-io/restitch/cli/config"
	"github.com/newswire-io/restitch/cli/render"
	"github.com/newswire-io/restitch/log"
	"github.com/newswire-io/restitch/metrics"
	"github.com/newswire-io/restitch/runtime"
	"github.com/newswire-io/restitch/store"
	"github.com/newswire-io/restitch/types"
)

// Exit codes for replay.
const (
	// exitSuccess: the capture was replayed to EOF. Rejected fragments do
	// not fail the replay; they are counted in the report.
	exitSuccess = 0
	// exitStreamError: the replay stopped early on a fatal stream or
	// store backend error.
	exitStreamError = 1
	// exitInvalidInput: unusable flags, config, or capture file.
	exitInvalidInput = 2
)

// ReplayCommand returns the replay command, the only command that
// executes work.
func ReplayCommand() *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "Replay a feed capture through the reassembly engine",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "capture",
				Usage:    "Path to capture file (- for stdin)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
			&cli.StringFlag{
				Name:  "session-id",
				Usage: "Session identifier for logs and events",
			},
			&cli.StringFlag{
				Name:  "ric",
				Usage: "Subscribed instrument code",
			},
			&cli.StringFlag{
				Name:  "service",
				Usage: "Upstream service name",
			},
			// Store flags
			&cli.StringFlag{
				Name:  "store-backend",
				Usage: "Fragment store backend: memory or redis",
			},
			&cli.StringFlag{
				Name:  "store-url",
				Usage: "Redis URL for the redis store backend",
			},
			&cli.DurationFlag{
				Name:  "max-age",
				Usage: "Max idle age before an open envelope is evicted",
			},
			&cli.IntFlag{
				Name:  "max-entries",
				Usage: "Max concurrently open envelopes (memory backend)",
			},
			&cli.DurationFlag{
				Name:  "sweep-interval",
				Usage: "How often the eviction sweep runs",
			},
			// Archive flags
			&cli.StringFlag{
				Name:  "archive-backend",
				Usage: "Story archive backend: fs or s3 (experimental)",
			},
			&cli.StringFlag{
				Name:  "archive-path",
				Usage: "Archive path (fs: directory, s3: bucket/prefix)",
			},
			&cli.StringFlag{
				Name:  "archive-s3-region",
				Usage: "AWS region for S3 backend (optional, uses default chain)",
			},
			// Adapter flags
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "Downstream adapter: redis or webhook",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Adapter endpoint (redis URL or webhook URL)",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis pub/sub channel for the redis adapter",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress the end-of-replay report",
			},
		}, RenderFlags()...),
		Action: replayAction,
	}
}

// storeChoice holds resolved fragment store configuration.
type storeChoice struct {
	backend       string
	url           string
	keyPrefix     string
	maxAge        time.Duration
	maxEntries    int
	sweepInterval time.Duration
}

// archiveChoice holds resolved story archive configuration.
type archiveChoice struct {
	backend     string
	path        string
	region      string
	endpoint    string
	s3PathStyle bool
}

// adapterChoice holds resolved downstream adapter configuration.
type adapterChoice struct {
	kind    string
	url     string
	channel string
	headers map[string]string
	timeout time.Duration
	retries int
}

func replayAction(c *cli.Context) error {
	cfg := &config.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cli.Exit(err.Error(), exitInvalidInput)
		}
		cfg = loaded
	}

	meta := &types.SessionMeta{
		SessionID: c.String("session-id"),
		RIC:       resolve(c.String("ric"), cfg.RIC),
		Service:   resolve(c.String("service"), cfg.Service),
	}
	meta.Normalize()

	capture, closeCapture, err := openCapture(c.String("capture"))
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}
	defer closeCapture()

	st, backendLabel, err := buildStore(resolveStore(c, cfg))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid store config: %v", err), exitInvalidInput)
	}
	defer func() { _ = st.Close() }()

	// Context with signal handling; Ctrl-C stops the replay cleanly and
	// still renders the partial report.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	arch, err := buildArchive(ctx, resolveArchive(c, cfg))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid archive config: %v", err), exitInvalidInput)
	}
	if arch != nil {
		defer func() { _ = arch.Close() }()
	}

	adp, err := buildAdapter(resolveAdapter(c, cfg))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid adapter config: %v", err), exitInvalidInput)
	}
	if adp != nil {
		defer func() { _ = adp.Close() }()
	}

	logger := log.NewLogger(meta)
	collector := metrics.NewCollector(backendLabel, meta.SessionID, meta.RIC)

	session := runtime.NewSession(runtime.Options{
		Store:         st,
		Logger:        logger,
		Meta:          meta,
		Collector:     collector,
		Adapter:       adp,
		Archive:       arch,
		SweepInterval: resolveSweepInterval(c, cfg),
	})

	report, runErr := session.Run(ctx, capture)

	if !c.Bool("quiet") {
		r, err := render.NewRenderer(c)
		if err != nil {
			return cli.Exit(err.Error(), exitInvalidInput)
		}
		if err := r.Render(report); err != nil {
			return fmt.Errorf("render report: %w", err)
		}
	}

	if runErr != nil {
		return cli.Exit(fmt.Sprintf("replay failed: %v", runErr), exitStreamError)
	}
	return cli.Exit("", exitSuccess)
}

// resolve returns the flag value if set, otherwise the config value.
func resolve(flag, cfg string) string {
	if flag != "" {
		return flag
	}
	return cfg
}

// openCapture opens the capture source. "-" reads stdin.
func openCapture(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open capture %q: %v", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func resolveStore(c *cli.Context, cfg *config.Config) storeChoice {
	choice := storeChoice{
		backend:       resolve(c.String("store-backend"), cfg.Store.Backend),
		url:           resolve(c.String("store-url"), cfg.Store.URL),
		keyPrefix:     cfg.Store.KeyPrefix,
		maxAge:        cfg.Store.MaxAge.Duration,
		maxEntries:    cfg.Store.MaxEntries,
		sweepInterval: cfg.Store.SweepInterval.Duration,
	}
	if c.IsSet("max-age") {
		choice.maxAge = c.Duration("max-age")
	}
	if c.IsSet("max-entries") {
		choice.maxEntries = c.Int("max-entries")
	}
	if c.IsSet("sweep-interval") {
		choice.sweepInterval = c.Duration("sweep-interval")
	}
	return choice
}

func resolveArchive(c *cli.Context, cfg *config.Config) archiveChoice {
	return archiveChoice{
		backend:     resolve(c.String("archive-backend"), cfg.Archive.Backend),
		path:        resolve(c.String("archive-path"), cfg.Archive.Path),
		region:      resolve(c.String("archive-s3-region"), cfg.Archive.Region),
		endpoint:    cfg.Archive.Endpoint,
		s3PathStyle: cfg.Archive.S3PathStyle,
	}
}

func resolveAdapter(c *cli.Context, cfg *config.Config) adapterChoice {
	choice := adapterChoice{
		kind:    resolve(c.String("adapter"), cfg.Adapter.Type),
		url:     resolve(c.String("adapter-url"), cfg.Adapter.URL),
		channel: resolve(c.String("adapter-channel"), cfg.Adapter.Channel),
		headers: cfg.Adapter.Headers,
		timeout: cfg.Adapter.Timeout.Duration,
	}
	if cfg.Adapter.Retries != nil {
		choice.retries = *cfg.Adapter.Retries
	}
	return choice
}

func resolveSweepInterval(c *cli.Context, cfg *config.Config) time.Duration {
	if c.IsSet("sweep-interval") {
		return c.Duration("sweep-interval")
	}
	return cfg.Store.SweepInterval.Duration
}

// buildStore creates the fragment store. The backend label feeds the
// metrics dimensions.
func buildStore(choice storeChoice) (store.Store, string, error) {
	limits := store.Limits{
		MaxAge:     choice.maxAge,
		MaxEntries: choice.maxEntries,
	}

	switch choice.backend {
	case "memory", "":
		return store.NewMemory(limits), "memory", nil

	case "redis":
		st, err := store.NewRedis(store.RedisConfig{
			URL:       choice.url,
			KeyPrefix: choice.keyPrefix,
			Limits:    limits,
		})
		if err != nil {
			return nil, "", err
		}
		return st, "redis", nil

	default:
		return nil, "", fmt.Errorf("unknown store-backend: %s (must be memory or redis)", choice.backend)
	}
}

// buildArchive creates the story archive, or nil when not configured.
func buildArchive(ctx context.Context, choice archiveChoice) (archive.Writer, error) {
	if choice.backend == "" && choice.path == "" {
		return nil, nil
	}

	switch choice.backend {
	case "fs", "":
		return archive.NewFS(choice.path)

	case "s3":
		bucket, prefix := archive.ParseS3Path(choice.path)
		return archive.NewS3(ctx, archive.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       choice.region,
			Endpoint:     choice.endpoint,
			UsePathStyle: choice.s3PathStyle,
		})

	default:
		return nil, fmt.Errorf("unknown archive-backend: %s (must be fs or s3)", choice.backend)
	}
}

// buildAdapter creates the downstream adapter, or nil when not configured.
func buildAdapter(choice adapterChoice) (adapter.Adapter, error) {
	switch choice.kind {
	case "":
		return nil, nil

	case "redis":
		return adapterredis.New(adapterredis.Config{
			URL:     choice.url,
			Channel: choice.channel,
			Timeout: choice.timeout,
			Retries: choice.retries,
		})

	case "webhook":
		return webhook.New(webhook.Config{
			URL:     choice.url,
			Headers: choice.headers,
			Timeout: choice.timeout,
			Retries: choice.retries,
		})

	default:
		return nil, fmt.Errorf("unknown adapter: %s (must be redis or webhook)", choice.kind)
	}
}
