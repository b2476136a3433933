// Package app wires configuration, storage, the API client, the session and
// the board together. There is one App per process.
package app

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/yukikurage/taskboard/internal/board"
	"github.com/yukikurage/taskboard/internal/client"
	"github.com/yukikurage/taskboard/internal/config"
	"github.com/yukikurage/taskboard/internal/session"
	"github.com/yukikurage/taskboard/internal/storage"
)

// ErrNotLoggedIn is returned by RequireLogin without a stored session.
var ErrNotLoggedIn = errors.New("not logged in, run `taskboard login` first")

type App struct {
	Config  *config.ClientConfig
	Log     *logrus.Logger
	Store   storage.Store
	API     *client.Client
	Session *session.Manager
	Board   *board.Controller
}

type options struct {
	store     storage.Store
	nav       session.Navigator
	onChange  func()
	logOutput io.Writer
	clientOpt []client.Option
}

// Option customises New.
type Option func(*options)

// WithStore uses store instead of the configured backend.
func WithStore(store storage.Store) Option {
	return func(o *options) { o.store = store }
}

func WithNavigator(nav session.Navigator) Option {
	return func(o *options) { o.nav = nav }
}

// WithOnChange is called whenever board state changes.
func WithOnChange(fn func()) Option {
	return func(o *options) { o.onChange = fn }
}

// WithLogOutput redirects the log. The board UI sends it to a file so it
// does not draw over the screen.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) { o.clientOpt = append(o.clientOpt, opts...) }
}

// NewLogger returns a logrus logger at the named level, falling back to warn.
func NewLogger(level string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.WarnLevel
	}
	l.SetLevel(lvl)
	return l
}

// New builds the App and restores any stored session.
func New(ctx context.Context, cfg *config.ClientConfig, opts ...Option) (*App, error) {
	o := options{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	logger := NewLogger(cfg.LogLevel, o.logOutput)

	store := o.store
	if store == nil {
		var err error
		store, err = storage.Open(cfg)
		if err != nil {
			return nil, err
		}
	}

	api := client.New(cfg.APIURL, append([]client.Option{
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithLogger(logger.WithField("component", "client")),
	}, o.clientOpt...)...)

	sessOpts := []session.Option{session.WithLogger(logger.WithField("component", "session"))}
	if o.nav != nil {
		sessOpts = append(sessOpts, session.WithNavigator(o.nav))
	}
	sess := session.NewManager(api, store, sessOpts...)

	api.SetTokenSource(sess.Token)
	api.SetUnauthorizedHandler(sess.UnauthorizedHandler())

	boardOpts := []board.Option{
		board.WithLogger(logger.WithField("component", "board")),
		board.WithNoticeTTL(cfg.NoticeTTL),
	}
	if o.onChange != nil {
		boardOpts = append(boardOpts, board.WithOnChange(o.onChange))
	}

	a := &App{
		Config:  cfg,
		Log:     logger,
		Store:   store,
		API:     api,
		Session: sess,
		Board:   board.NewController(api, sess, boardOpts...),
	}

	if err := sess.Restore(ctx); err != nil {
		logger.WithError(err).Warn("Could not restore session")
	}
	return a, nil
}

// RequireLogin fails unless a session is active.
func (a *App) RequireLogin() error {
	if !a.Session.State().IsAuthenticated {
		return ErrNotLoggedIn
	}
	return nil
}

// Close releases the store and banner timers.
func (a *App) Close() error {
	a.Board.Close()
	return a.Store.Close()
}
