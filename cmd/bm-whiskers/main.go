package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/nikbrunner/whiskers-bm/internal/actions"
	"github.com/nikbrunner/whiskers-bm/internal/culler"
	"github.com/nikbrunner/whiskers-bm/internal/desktop"
	"github.com/nikbrunner/whiskers-bm/internal/exporter"
	"github.com/nikbrunner/whiskers-bm/internal/favicon"
	"github.com/nikbrunner/whiskers-bm/internal/host"
	"github.com/nikbrunner/whiskers-bm/internal/icons"
	"github.com/nikbrunner/whiskers-bm/internal/importer"
	"github.com/nikbrunner/whiskers-bm/internal/logging"
	"github.com/nikbrunner/whiskers-bm/internal/model"
	"github.com/nikbrunner/whiskers-bm/internal/picker"
	"github.com/nikbrunner/whiskers-bm/internal/results"
	"github.com/nikbrunner/whiskers-bm/internal/storage"
)

// env holds the process boundary so tests can replace it.
type env struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	opener   actions.Opener
	notifier actions.Notifier
}

func main() {
	d := desktop.New(storage.AppDirName)
	os.Exit(run(os.Args[1:], env{
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		opener:   d,
		notifier: d,
	}))
}

func printHelp(w io.Writer) {
	help := `bm-whiskers - bookmarks for the whiskers launcher

Usage:
  bm-whiskers [flags]                 Answer one host request read from stdin
  bm-whiskers preview [query]         Try the results for a query in the terminal
  bm-whiskers import <file>           Import bookmarks (HTML, bookmarks.yml, .json)
  bm-whiskers export [path]           Export bookmarks to HTML
  bm-whiskers check [--remove]        Find bookmarks whose URLs are dead
  bm-whiskers help                    Show this help

Flags:
  --config-dir <dir>    Data directory (default: <user config dir>/bm-whiskers)
  --request <file>      Read the host request from a file instead of stdin
  --log-level <level>   trace, debug, info, warn, error, off
  --log-stderr          Log to stderr instead of bm-whiskers.log

Queries:
  <text>                Search bookmarks and groups
  e <text>, edit <text>     Edit matching bookmarks and groups
  d <text>, delete <text>   Delete matching bookmarks and groups
`
	fmt.Fprint(w, help)
}

type app struct {
	dir      string
	cfg      *storage.Config
	storage  storage.Storage
	log      zerolog.Logger
	icons    icons.Set
	favicons *favicon.Fetcher
	env      env
}

func run(args []string, e env) int {
	flags := flag.NewFlagSet("bm-whiskers", flag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(e.stderr)
	flags.Usage = func() { printHelp(e.stderr) }
	configDir := flags.String("config-dir", "", "data directory")
	requestPath := flags.String("request", "", "read the host request from a file")
	logLevel := flags.String("log-level", "", "log level")
	logStderr := flags.Bool("log-stderr", false, "log to stderr")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := flags.Args()
	command := ""
	if len(rest) > 0 {
		command = rest[0]
		rest = rest[1:]
	}
	if command == "help" {
		printHelp(e.stdout)
		return 0
	}

	dir := *configDir
	if dir == "" {
		var err error
		if dir, err = storage.DefaultDir(); err != nil {
			fmt.Fprintf(e.stderr, "Error getting config dir: %v\n", err)
			return 1
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintf(e.stderr, "Error creating config dir: %v\n", err)
		return 1
	}

	cfg, err := storage.LoadConfig(filepath.Join(dir, storage.ConfigFileName))
	if err != nil {
		fmt.Fprintf(e.stderr, "Error loading config: %v\n", err)
		return 1
	}

	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	logger, closer := logging.Setup(logging.Options{
		Level:  level,
		Dir:    dir,
		File:   storage.LogFileName,
		Stderr: *logStderr,
	})
	defer func() { _ = closer.Close() }()

	st, err := storage.OpenStorage(*cfg, dir)
	if err != nil {
		return fail(e, logger, err)
	}
	if c, ok := st.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	iconsDir := cfg.IconsDir
	if iconsDir == "" {
		iconsDir = icons.DefaultDir()
	}

	a := &app{
		dir:     dir,
		cfg:     cfg,
		storage: st,
		log:     logger,
		icons:   icons.New(iconsDir),
		favicons: favicon.New(favicon.Config{
			Service: cfg.FaviconService,
			Size:    cfg.FaviconSize,
			Timeout: cfg.FaviconTimeout(),
			Dir:     filepath.Join(dir, storage.FaviconDirName),
		}),
		env: e,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch command {
	case "":
		err = a.serve(ctx, *requestPath)
	case "preview":
		err = a.preview(ctx, strings.Join(rest, " "))
	case "import":
		if len(rest) < 1 {
			fmt.Fprintf(e.stderr, "Usage: bm-whiskers import <file>\n")
			return 2
		}
		err = a.importFile(rest[0])
	case "export":
		var outputPath string
		if len(rest) >= 1 {
			outputPath = rest[0]
		}
		err = a.export(outputPath)
	case "check":
		err = a.check(ctx, rest)
	default:
		fmt.Fprintf(e.stderr, "Unknown command %q\n\n", command)
		printHelp(e.stderr)
		return 2
	}

	if err == nil {
		return 0
	}
	if errors.Is(err, actions.ErrInvalidInput) {
		logger.Warn().Err(err).Msg("Rejected input")
		return 0
	}
	return fail(e, logger, err)
}

func fail(e env, logger zerolog.Logger, err error) int {
	logger.Error().Err(err).Msg("Invocation failed")
	fmt.Fprintf(e.stderr, "Error: %v\n", err)
	return 1
}

// serve answers a single host request.
func (a *app) serve(ctx context.Context, requestPath string) error {
	in := a.env.stdin
	if requestPath != "" {
		f, err := os.Open(requestPath)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	req, err := host.ReadRequest(in)
	if err != nil {
		return err
	}

	store, err := a.storage.Load()
	if err != nil {
		return fmt.Errorf("load bookmarks: %w", err)
	}

	a.log.Debug().
		Str("kind", string(req.Kind)).
		Str("search", req.SearchText).
		Str("action", req.Action).
		Strs("args", req.Args).
		Msg("Request")

	switch req.Kind {
	case host.KindResults:
		items := a.builder(store, req).Build(req.SearchText)
		a.log.Debug().Int("results", len(items)).Msg("Results built")
		return host.WriteResponse(a.env.stdout, items)
	default:
		return a.dispatcher(store).Dispatch(ctx, req.Action, req.Args, req.Form)
	}
}

func (a *app) builder(store *model.Store, settings host.Settings) *results.Builder {
	layered := host.Layered{settings, a.cfg}
	return results.New(store, results.Options{
		Icons:   a.icons,
		CopyURL: host.Bool(layered, storage.SettingCopyURL),
	})
}

func (a *app) dispatcher(store *model.Store) *actions.Dispatcher {
	return actions.New(store, a.storage, actions.Options{
		Opener:    a.env.opener,
		Notifier:  a.env.notifier,
		Favicons:  a.favicons,
		OpenDelay: a.cfg.OpenDelay(),
		Logger:    a.log,
	})
}

// preview plays the launcher's part in the terminal.
func (a *app) preview(ctx context.Context, query string) error {
	store, err := a.storage.Load()
	if err != nil {
		return fmt.Errorf("load bookmarks: %w", err)
	}

	b := a.builder(store, nil)
	selected, ok, err := picker.Run(b.Build, query, a.env.stdin, a.env.stdout)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	d := a.dispatcher(store)
	status, err := picker.Perform(selected, picker.Handler{
		Open: a.env.opener.Open,
		Extension: func(action string, args []string) error {
			return d.Dispatch(ctx, action, args, nil)
		},
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.env.stdout, status)
	return nil
}

// importFile handles the import subcommand.
func (a *app) importFile(path string) error {
	store, err := a.storage.Load()
	if err != nil {
		return fmt.Errorf("load bookmarks: %w", err)
	}

	batch, err := importer.ParseFile(path)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	groupsBefore := len(store.Groups)
	added, skipped := batch.Into(store)

	if err := a.storage.Save(store); err != nil {
		return fmt.Errorf("save bookmarks: %w", err)
	}
	a.log.Info().Str("file", path).Int("added", added).Int("skipped", skipped).Msg("Imported")

	fmt.Fprintf(a.env.stdout, "Imported %d bookmarks, %d new groups", added, len(store.Groups)-groupsBefore)
	if skipped > 0 {
		fmt.Fprintf(a.env.stdout, " (%d duplicates skipped)", skipped)
	}
	fmt.Fprintln(a.env.stdout)
	return nil
}

// export handles the export subcommand.
func (a *app) export(outputPath string) error {
	if outputPath == "" {
		var err error
		if outputPath, err = exporter.DefaultExportPath(); err != nil {
			return fmt.Errorf("default export path: %w", err)
		}
	}

	store, err := a.storage.Load()
	if err != nil {
		return fmt.Errorf("load bookmarks: %w", err)
	}

	if err := exporter.WriteFile(store, outputPath); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	fmt.Fprintf(a.env.stdout, "Exported %d bookmarks, %d groups to %s\n",
		len(store.Bookmarks), len(store.Groups), outputPath)
	return nil
}

// check handles the check subcommand.
func (a *app) check(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("check", flag.ContinueOnError)
	flags.SetOutput(a.env.stderr)
	remove := flags.Bool("remove", false, "delete dead bookmarks")
	private := flags.StringSlice("private", []string{"github.com"}, "domains whose 404s may be private pages")
	concurrency := flags.IntP("jobs", "j", 8, "parallel checks")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	store, err := a.storage.Load()
	if err != nil {
		return fmt.Errorf("load bookmarks: %w", err)
	}

	results := culler.Check(ctx, store.Bookmarks, culler.Options{
		Concurrency: *concurrency,
		Private:     *private,
	})

	var dead int
	for _, r := range results {
		switch r.Status {
		case culler.Dead:
			dead++
			fmt.Fprintf(a.env.stdout, "dead         %d  %s  (%d)\n", r.ID, r.URL, r.StatusCode)
		case culler.Unreachable:
			fmt.Fprintf(a.env.stdout, "unreachable  %d  %s  (%s)\n", r.ID, r.URL, r.Reason)
		}
	}
	fmt.Fprintf(a.env.stdout, "Checked %d bookmarks, %d dead\n", len(results), dead)

	if !*remove || dead == 0 {
		return nil
	}

	var removed []model.Bookmark
	for _, r := range culler.DeadResults(results) {
		bm := store.GetBookmarkByID(r.ID)
		if bm == nil {
			continue
		}
		removed = append(removed, *bm)
		if err := store.DeleteBookmark(r.ID); err != nil {
			return err
		}
	}
	if err := a.storage.Save(store); err != nil {
		return fmt.Errorf("save bookmarks: %w", err)
	}
	for _, bm := range removed {
		if bm.HasIcon() {
			if err := a.favicons.Remove(bm.ID); err != nil {
				a.log.Debug().Err(err).Uint64("id", bm.ID).Msg("Favicon not removed")
			}
		}
	}
	a.log.Info().Int("removed", len(removed)).Msg("Dead bookmarks removed")
	fmt.Fprintf(a.env.stdout, "Removed %d dead bookmarks\n", len(removed))
	return nil
}
