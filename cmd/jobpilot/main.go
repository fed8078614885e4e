// Command jobpilot discovers job listings, matches them against a candidate
// profile, and applies through a stealth browser session.
//
// Usage:
//
//	jobpilot -config jobpilot.yaml -hunt          # full discover + apply run
//	jobpilot -config jobpilot.yaml -discover      # discover and score only
//	jobpilot -config jobpilot.yaml -apply <id>    # apply to one stored job
//	jobpilot -config jobpilot.yaml -serve         # dashboard API only
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joelfuller2016/job-applier-sub002/api"
	"github.com/joelfuller2016/job-applier-sub002/autofill"
	"github.com/joelfuller2016/job-applier-sub002/browser"
	"github.com/joelfuller2016/job-applier-sub002/config"
	"github.com/joelfuller2016/job-applier-sub002/hunt"
	"github.com/joelfuller2016/job-applier-sub002/jobs"
	"github.com/joelfuller2016/job-applier-sub002/llm"
	"github.com/joelfuller2016/job-applier-sub002/platform"
	"github.com/joelfuller2016/job-applier-sub002/profile"
	"github.com/joelfuller2016/job-applier-sub002/store"
)

func main() {
	configPath := flag.String("config", "jobpilot.yaml", "path to config file")
	doHunt := flag.Bool("hunt", false, "run a full discover and apply cycle")
	doDiscover := flag.Bool("discover", false, "discover and score jobs without applying")
	applyID := flag.String("apply", "", "apply to one stored job by ID")
	doServe := flag.Bool("serve", false, "serve the dashboard API")
	dryRun := flag.Bool("dry-run", false, "fill forms but never submit")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *doHunt, *doDiscover, *applyID, *doServe, *dryRun); err != nil {
		logger.Error("jobpilot: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath string, doHunt, doDiscover bool, applyID string, doServe, dryRun bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dryRun {
		cfg.Hunt.DryRun = true
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	switch {
	case doServe:
		return runServe(ctx, logger, cfg, st)
	case doDiscover:
		return runDiscover(ctx, logger, cfg, st)
	case doHunt:
		return runHunt(ctx, logger, cfg, st, "")
	case applyID != "":
		return runHunt(ctx, logger, cfg, st, applyID)
	}

	fmt.Fprintln(os.Stderr, "usage: jobpilot -hunt | -discover | -apply <job-id> | -serve")
	os.Exit(1)
	return nil
}

func runServe(ctx context.Context, logger *slog.Logger, cfg *config.Config, st *store.Store) error {
	srv := api.New(st, cfg.ListenAddr, api.WithLogger(logger))
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()
	return srv.Start()
}

func runDiscover(ctx context.Context, logger *slog.Logger, cfg *config.Config, st *store.Store) error {
	prof, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		return err
	}
	disc := jobs.NewDiscovery(cfg.Search, jobs.WithLogger(logger))

	// Discovery needs no browser or LLM; build a hunter with only the
	// pieces it uses.
	h := hunt.New(st, disc, nil, nil, prof, cfg.Hunt, hunt.WithLogger(logger))
	sum := &hunt.Summary{}
	candidates, err := h.Discover(ctx, sum)
	if err != nil {
		return err
	}

	for _, job := range candidates {
		fmt.Printf("%-36s  %3d  %-10s  %s at %s\n",
			job.ID, job.MatchScore, job.Platform, job.Title, job.Company)
	}
	logger.Info("jobpilot: discover done",
		"discovered", sum.Discovered, "new", sum.NewJobs, "candidates", sum.Candidates)
	return nil
}

func runHunt(ctx context.Context, logger *slog.Logger, cfg *config.Config, st *store.Store, applyID string) error {
	prof, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		return err
	}
	if err := st.SaveProfile(ctx, prof); err != nil {
		return err
	}

	client, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		logger.Warn("jobpilot: no LLM available, deterministic fill only", "error", err)
		client = nil
	}

	disc := jobs.NewDiscovery(cfg.Search, jobs.WithLogger(logger))

	shots, err := browser.NewShots(cfg.ScreenshotDir)
	if err != nil {
		return err
	}

	cfg.Browser.Logger = logger
	mgr := browser.NewManager(cfg.Browser)
	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer mgr.Close()
	if err := mgr.LoadCookies(cfg.CookiePath); err != nil {
		logger.Warn("jobpilot: cookie load", "error", err)
	}
	defer func() {
		if err := mgr.SaveCookies(cfg.CookiePath); err != nil {
			logger.Warn("jobpilot: cookie save", "error", err)
		}
	}()

	analyzer := autofill.NewAnalyzer(
		autofill.WithLLM(client),
		autofill.WithSearcher(disc),
		autofill.WithAnalyzerLogger(logger))
	resolver := autofill.NewResolver(client, autofill.WithResolverLogger(logger))
	filler := autofill.NewFiller(resolver,
		autofill.WithDelays(cfg.Delays),
		autofill.WithFillerLogger(logger))
	nav := autofill.NewNavigator(analyzer, filler,
		autofill.WithScreenshots(shots),
		autofill.WithNavigatorLogger(logger))

	registry := platform.NewRegistry(
		platform.NewLinkedIn(analyzer, filler, cfg.Platforms.LinkedIn.Credentials,
			platform.WithLinkedInScreenshots(shots),
			platform.WithLinkedInLogger(logger)),
		platform.NewIndeed(nav, cfg.Platforms.Indeed.Credentials,
			platform.WithIndeedLogger(logger)),
	)

	pages := func(ctx context.Context) (autofill.Page, error) {
		return mgr.OpenPage(ctx)
	}

	opts := []hunt.Option{
		hunt.WithRegistry(registry),
		hunt.WithGate(platform.NewGate(cfg.Quotas())),
		hunt.WithLogger(logger),
	}
	if cfg.Hunt.RequireConfirmation {
		opts = append(opts, hunt.WithConfirmation(confirmOnTerminal))
	}
	h := hunt.New(st, disc, nav, pages, prof, cfg.Hunt, opts...)

	if applyID != "" {
		app, err := h.ApplyToStored(ctx, applyID)
		if err != nil {
			return err
		}
		logger.Info("jobpilot: apply done", "application", app.ID, "status", app.Status, "message", app.Message)
		return nil
	}

	sum, err := h.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("jobpilot: hunt done",
		"attempted", sum.Attempted, "submitted", sum.Submitted,
		"failed", sum.Failed, "manual", sum.RequiresManual, "skipped", sum.Skipped)
	return nil
}

// confirmOnTerminal asks on stdin before each submission.
func confirmOnTerminal(job *jobs.Listing) bool {
	fmt.Printf("apply to %q at %s (%s, score %d)? [y/N] ",
		job.Title, job.Company, job.Platform, job.MatchScore)
	r := bufio.NewReader(os.Stdin)
	line, err := r.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
