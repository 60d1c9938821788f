package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"concertscout/internal/app/listings"
	"concertscout/internal/cache"
	"concertscout/internal/crawler"
	"concertscout/internal/fetch"
	"concertscout/internal/http/middleware"
	"concertscout/internal/httpapi"
	"concertscout/internal/logging"
	"concertscout/internal/parse"
	"concertscout/internal/store"
)

func main() {
	serve := flag.Bool("serve", false, "serve the listings API instead of running a crawl")
	pruneArtists := flag.Bool("prune-artists", false, "remove placeholder artist rows and exit")
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal(err, "could not connect to database")
	}
	defer db.Close()

	dataStore := store.New(db, logger.With("store"))
	if err := dataStore.InitSchema(ctx); err != nil {
		logger.Fatal(err, "could not initialize schema")
	}

	switch {
	case *pruneArtists:
		removed, err := dataStore.PruneArtists(ctx)
		if err != nil {
			logger.Fatal(err, "artist prune failed")
		}
		logger.Info(fmt.Sprintf("pruned %d placeholder artists", removed))
	case *serve:
		if err := runServer(ctx, cfg, dataStore, logger); err != nil {
			logger.Fatal(err, "server error")
		}
	default:
		if err := runCrawl(ctx, cfg, dataStore, logger); err != nil {
			logger.Fatal(err, "crawl aborted")
		}
	}
}

func runServer(ctx context.Context, cfg Config, dataStore *store.Store, logger *logging.Logger) error {
	service := listings.New(dataStore)
	handler := middleware.CORS(cfg.AllowedOrigins)(httpapi.New(service).Routes())

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.Info(fmt.Sprintf("listings API available at http://localhost%s", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// runCrawl assembles the acquisition chain and processes every configured
// venue once. Missing API keys disable their strategy rather than failing
// the run.
func runCrawl(ctx context.Context, cfg Config, dataStore *store.Store, logger *logging.Logger) error {
	venues, err := loadVenues(cfg.VenuesFile)
	if err != nil {
		return err
	}

	fetchCache, err := cache.New(filepath.Join(cfg.CacheDir, "pages"), 0)
	if err != nil {
		return err
	}
	lastGood, err := cache.NewLastGood(filepath.Join(cfg.CacheDir, "lastgood"))
	if err != nil {
		return err
	}

	if cfg.FirecrawlAPIKey == "" {
		logger.Warn("FIRECRAWL_API_KEY not set, managed scrape API disabled")
	}
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, generic parsing falls back to heuristics only")
	}

	// One proxy per run; successive runs rotate through the pool.
	proxy := pickProxy(cfg.ScrapeProxies)
	secondary := &fetch.PlaywrightFetcher{Proxy: proxy}
	browser := fetch.NewBrowserFetcher(proxy, secondary)
	browser.Log = logger.With("browser")
	httpFetcher := fetch.NewHTTPFetcher(proxy)
	httpFetcher.Log = logger.With("http")

	chain := &fetch.Chain{
		Managed: fetch.NewFirecrawlClient(cfg.FirecrawlAPIKey),
		Browser: browser,
		HTTP:    httpFetcher,
		Cache:   fetchCache,
		Log:     logger.With("fetch"),
	}

	c := &crawler.Crawler{
		Venues:   venues,
		Chain:    chain,
		Warm:     browser,
		HTTP:     httpFetcher,
		Registry: parse.NewRegistry(),
		Generic: &parse.Generic{
			LLM: parse.NewLLMParser(cfg.OpenAIAPIKey),
			Log: logger.With("parse"),
		},
		Store:    dataStore,
		LastGood: lastGood,
		Log:      logger.With("crawler"),
	}
	return c.Run(ctx)
}

func pickProxy(proxies []string) string {
	if len(proxies) == 0 {
		return ""
	}
	return proxies[rand.IntN(len(proxies))]
}
