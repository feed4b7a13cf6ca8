package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/cache"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/client"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/config"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/live"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/notify"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/optimistic"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/preview"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/repositories"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/services"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/storage"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/upload"
	"github.com/vanchuong201/joywork-web-sub000/internal/logging"
)

// Deps are the collaborators an App is assembled from. NewApp builds the real
// ones from configuration; tests pass fakes.
type Deps struct {
	Out      io.Writer
	Logger   logging.Logger
	API      client.Client
	Storage  storage.ObjectStorage
	Previews upload.Previewer
	Repos    *repositories.Repositories
	Config   *config.Config
	// LiveURL enables the live update subscriber when non-empty.
	LiveURL string
	Token   string
}

// App is one interactive session: a feed cache with its optimistic mutator
// and an attachment queue for the post being composed.
type App struct {
	out    *syncWriter
	logger logging.Logger

	store   *cache.Store
	feeds   services.FeedService
	mutator *optimistic.Mutator
	queue   *upload.Queue
	live    *live.Subscriber
	closers []func() error

	mu      sync.Mutex
	current *cache.Collection
}

// New assembles an App around d.
func New(d Deps) *App {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Config == nil {
		d.Config = &config.Config{}
		d.Config.LoadDefaults()
	}
	out := &syncWriter{w: d.Out}
	if d.Out == nil {
		out.w = io.Discard
	}
	notices := noticePrinter(out)
	cfg := d.Config

	store := cache.NewStore(d.API, cache.Options{
		PageSize: cfg.PageSize,
		Kinds:    []models.CollectionKind{models.KindFeed, models.KindCompany, models.KindTag, models.KindSaved, models.KindAuthor},
		Notifier: notices,
		Logger:   d.Logger,
	})

	a := &App{
		out:    out,
		logger: d.Logger,
		store:  store,
		feeds:  services.NewFeedService(store, d.Repos.Snapshots, d.Repos.Metadata, services.FeedOptions{Logger: d.Logger}),
		mutator: optimistic.NewMutator(d.API, store, optimistic.Options{
			Timeout:  cfg.RequestTimeout,
			Notifier: notices,
			Logger:   d.Logger,
		}),
		queue: upload.NewQueue(d.Storage, d.Previews, upload.Options{
			MaxFiles:    cfg.Upload.MaxFiles,
			Concurrency: cfg.Upload.Concurrency,
			Validator:   upload.NewValidator(cfg.Upload.AllowedTypes, cfg.Upload.MaxFileSize),
			Prober:      upload.ImageProber{},
			Notifier:    notices,
			Logger:      d.Logger,
		}),
	}
	if d.LiveURL != "" {
		header := http.Header{}
		if d.Token != "" {
			header.Set("Authorization", "Bearer "+d.Token)
		}
		a.live = live.NewSubscriber(d.LiveURL, store, live.Options{Header: header, Logger: d.Logger})
	}
	return a
}

// NewApp builds every collaborator from cfg. The returned App owns them and
// releases them on Close.
func NewApp(ctx context.Context, cfg *config.Config, out io.Writer, logger logging.Logger, token string) (*App, error) {
	repos, err := repositories.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Error(ctx, "error initializing database", "dsn", cfg.DatabaseDSN, "error", err)
		return nil, err
	}

	api, err := client.NewFeedClient(cfg.APIEndpoint, client.WithToken(token), client.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	st, err := storage.NewS3Storage(ctx, cfg.S3, logger)
	if err != nil {
		_ = api.Close()
		_ = repos.Close()
		return nil, err
	}

	previews, err := preview.NewDiskRegistry(cfg.DataDir, logger)
	if err != nil {
		_ = api.Close()
		_ = repos.Close()
		return nil, err
	}

	a := New(Deps{
		Out:      out,
		Logger:   logger,
		API:      api,
		Storage:  st,
		Previews: previews,
		Repos:    repos,
		Config:   cfg,
		LiveURL:  cfg.LiveURL,
		Token:    token,
	})
	a.closers = append(a.closers, func() error { previews.Close(); return nil }, api.Close, repos.Close)
	return a, nil
}

// RunLive streams authoritative updates into the cache until ctx is done.
func (a *App) RunLive(ctx context.Context) error {
	if a.live == nil {
		return nil
	}
	err := a.live.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops the queue and the mutator, persists open collections and
// releases owned resources.
func (a *App) Close(ctx context.Context) error {
	a.queue.Close()
	a.mutator.Close()
	errs := []error{a.feeds.Close(ctx)}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (a *App) collection() (*cache.Collection, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil, errNoCollection
	}
	return a.current, nil
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

// syncWriter serializes writes from background notices and the REPL.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

func noticePrinter(w io.Writer) notify.Notifier {
	return notify.Func(func(n notify.Notice) {
		if n.Err != nil {
			_, _ = fmt.Fprintf(w, "! %s: %s (%v)\n", n.Op, n.Message, n.Err)
			return
		}
		_, _ = fmt.Fprintf(w, "! %s: %s\n", n.Op, n.Message)
	})
}
