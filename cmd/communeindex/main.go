// Copyright 2025 The CommuneIndex Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main builds the static commune autocomplete index.

CommuneIndex downloads the French commune list and the department list,
expands every commune into one locality per postal code, and splits the
result into small prefix shards that a browser fetches as the user types.
Alongside the shards it writes a manifest listing every shard and, unless
disabled, one sitemap per department plus a sitemap index.

# Usage

Build into ./public with the default sources:

	communeindex

Build from local copies, in msgpack, with debug logging:

	communeindex -communes communes.json -departements departements.json -format msgpack -d

Inspect a built index interactively:

	communeindex -c -out public -limit 10

# Output

	public/
	    autocompletes.json              manifest: every shard query, in build order
	    autocomplete-cache/tuf_<q>.json one shard per query
	    sitemaps/sitemap-<dept>.xml     one urlset per department
	    sitemap.xml                     index, from a template with a marker

A shard holds the localities answering its query, best match first:

	{"query":"pa","communes":[{"c":"75056","z":"75001","n":"Paris","d":"75","g":"2.336157203926649,48.86283948229915"}]}

# Partitioning

A query whose match set holds fewer than threshold localities, or that is
max_depth characters long, becomes one shard. Larger queries are split into
one child per alphabet symbol, and keep a shard of their own for names that
end exactly at the query. A build fails if any locality ends up in no shard.

# Configuration

Runtime configuration is read from a TOML file, created with defaults when
missing. Environment variables (and a .env file) override it, and flags
override both:

	[index]
	threshold = 800
	max_depth = 7
	workers = 1

	[output]
	dir = "public"
	format = "json"

# Command Line Flags

	-config string
	    Path to the config file
	-out string
	    Output directory
	-threshold int
	    Shard size cap (strict)
	-depth int
	    Maximum query length
	-workers int
	    Top-level branches built in parallel
	-format string
	    Shard format, json or msgpack
	-communes string
	    Commune source, URL or file
	-departements string
	    Department source, URL or file
	-no-sitemap
	    Skip sitemap generation
	-d  Enable debug mode with detailed logging
	-c  Open the inspector over an existing build
	-limit int
	    Results shown per query in the inspector
	-version
	    Show current version
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastiangx/communeindex/internal/cli"
	"github.com/bastiangx/communeindex/internal/logger"
	"github.com/bastiangx/communeindex/internal/utils"
	"github.com/bastiangx/communeindex/pkg/config"
	"github.com/bastiangx/communeindex/pkg/fetch"
	"github.com/bastiangx/communeindex/pkg/index"
	"github.com/bastiangx/communeindex/pkg/locality"
	"github.com/bastiangx/communeindex/pkg/lookup"
	"github.com/bastiangx/communeindex/pkg/normalize"
	"github.com/bastiangx/communeindex/pkg/shard"
	"github.com/bastiangx/communeindex/pkg/sitemap"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0"
	gh      = "https://github.com/bastiangx/communeindex"
)

// sigHandler cancels the build on the first signal and exits on the second.
func sigHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nStopping build...\n")
		cancel()
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(1)
	}()
}

// main only manages the flow between packages.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigHandler(cancel)

	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to the config file")
	outDir := flag.String("out", defaultConfig.Output.Dir, "Output directory")
	threshold := flag.Int("threshold", defaultConfig.Index.Threshold, "Shard size cap, a shard holds fewer localities than this")
	depth := flag.Int("depth", defaultConfig.Index.MaxDepth, "Maximum query length")
	workers := flag.Int("workers", defaultConfig.Index.Workers, "Top-level branches built in parallel")
	format := flag.String("format", defaultConfig.Output.Format, "Shard format: json or msgpack")
	communesSrc := flag.String("communes", defaultConfig.Fetch.CommunesURL, "Commune source, URL or file")
	departementsSrc := flag.String("departements", defaultConfig.Fetch.DepartementsURL, "Department source, URL or file")
	noSitemap := flag.Bool("no-sitemap", false, "Skip sitemap generation")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Open the inspector over an existing build")
	limit := flag.Int("limit", defaultConfig.CLI.DefaultLimit, "Results shown per query in the inspector")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	cfg, usedPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config: %s", config.GetActiveConfigPath(usedPath))

	// explicitly set flags win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			cfg.Output.Dir = *outDir
		case "threshold":
			cfg.Index.Threshold = *threshold
		case "depth":
			cfg.Index.MaxDepth = *depth
		case "workers":
			cfg.Index.Workers = *workers
		case "format":
			cfg.Output.Format = *format
		case "communes":
			cfg.Fetch.CommunesURL = *communesSrc
		case "departements":
			cfg.Fetch.DepartementsURL = *departementsSrc
		case "no-sitemap":
			cfg.Sitemap.Enabled = !*noSitemap
		case "limit":
			cfg.CLI.DefaultLimit = *limit
		}
	})
	if !cfg.Validate() {
		log.Warn("Some settings were out of range and fell back to defaults")
	}

	store := shard.NewStore(cfg.Output.Dir, cfg.Output.ShardDir, cfg.Output.Manifest, cfg.ShardFormat())

	if *cliMode {
		log.SetReportTimestamp(false)
		if err := store.Detect(); err != nil {
			log.Fatalf("Failed to read shards in %s: %v", store.Dir(), err)
		}
		resolver, err := lookup.NewResolver(store)
		if err != nil {
			log.Fatalf("Failed to open index in %s: %v", cfg.Output.Dir, err)
		}
		log.Debug("Inspector", "shards", resolver.Size(), "limit", cfg.CLI.DefaultLimit)
		if err := cli.NewInputHandler(resolver, os.Stdin, os.Stdout, cfg.CLI.DefaultLimit).Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	if err := build(ctx, cfg, store); err != nil {
		var orphans *index.OrphanError
		if errors.As(err, &orphans) {
			log.Error("Some localities are in no shard", "count", len(orphans.Keys))
		}
		log.Fatalf("Build failed: %v", err)
	}
}

// build runs fetch, preprocessing, partitioning and sitemaps in order.
func build(ctx context.Context, cfg *config.Config, store *shard.Store) error {
	start := time.Now()

	fetcher := fetch.New(cfg.FetchTimeout(), cfg.Fetch.CacheDir)
	ds, err := fetcher.FetchAll(ctx, cfg.Fetch.CommunesURL, cfg.Fetch.DepartementsURL)
	if err != nil {
		return fmt.Errorf("fetching datasets: %w", err)
	}

	localities := locality.Preprocess(ds.Communes, locality.DefaultOverrides())
	log.Infof("Preprocessed %s communes into %s localities",
		utils.FormatWithCommas(len(ds.Communes)), utils.FormatWithCommas(len(localities)))

	builder, err := index.NewBuilder(index.Options{
		Threshold: cfg.Index.Threshold,
		MaxDepth:  cfg.Index.MaxDepth,
		Alphabet:  normalize.Alphabet(cfg.Index.Alphabet),
		Workers:   cfg.Index.Workers,
		FailFast:  cfg.Index.FailFast,
	}, store)
	if err != nil {
		return err
	}
	res, err := builder.Build(ctx, localities)
	if err != nil {
		return err
	}

	if cfg.Sitemap.Enabled {
		emitter := sitemap.NewEmitter(cfg.Sitemap.BaseURL, cfg.Output.Dir, cfg.Sitemap.Dir,
			cfg.Sitemap.Template, cfg.Sitemap.SearchTypes, cfg.Sitemap.SortOrder)
		if err := emitter.Emit(ds.Departements, localities); err != nil {
			return fmt.Errorf("writing sitemaps: %w", err)
		}
	}

	log.Info("Done",
		"shards", utils.FormatWithCommas(res.Shards),
		"localities", utils.FormatWithCommas(res.Localities),
		"format", store.Format(),
		"out", utils.GetAbsolutePath(cfg.Output.Dir),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func printVersion() {
	banner := logger.NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter)

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ CommuneIndex ] Prefix shards for commune autocomplete")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}
