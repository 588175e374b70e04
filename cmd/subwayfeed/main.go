package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/subway-feeds/api"
	"github.com/theoremus-urban-solutions/subway-feeds/config"
	"github.com/theoremus-urban-solutions/subway-feeds/gtfsrt"
	"github.com/theoremus-urban-solutions/subway-feeds/service"
	"github.com/theoremus-urban-solutions/subway-feeds/stations"
)

func main() {
	oneshot := flag.Bool("oneshot", false, "fetch one snapshot, print it as JSON and exit")
	lines := flag.String("lines", "", "comma-separated line filter, e.g. A,C,E")
	station := flag.String("station", "", "oneshot: print arrivals for this station instead of a snapshot")
	flag.Parse()

	if os.Getenv("SUBWAYFEED_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	if os.Getenv("SUBWAYFEED_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	if err := config.LoadAppConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lookup := stations.Bundled()
	if file := config.Config.Stations.File; file != "" {
		var err error
		if lookup, err = stations.LoadFile(file); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Failed to load stations table")
		}
	}
	log.Info().Int("stations", lookup.Len()).Msg("Stations table loaded")

	fetcher := gtfsrt.NewFetcher(config.Config.Upstream)
	opts := gtfsrt.FetchOptions{
		CacheTTL: time.Duration(config.Config.Upstream.CacheTTLMS) * time.Millisecond,
	}
	svc := service.New(fetcher, lookup, opts)

	if *oneshot {
		runOneshot(svc, splitLines(*lines), *station)
		return
	}

	app := api.NewServer(svc)
	addr := fmt.Sprintf(":%d", config.Config.Server.Port)
	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()
	log.Info().Str("addr", addr).Msg("Server listening")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info().Msg("Shutdown signal received")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
}

func runOneshot(svc *service.Service, lines []string, station string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var out any
	if station != "" {
		out = svc.FetchArrivals(ctx, station)
	} else {
		out = svc.FetchAll(ctx, lines)
	}

	buf, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode output")
	}
	fmt.Println(string(buf))
	log.Info().Str("mode", string(svc.Mode())).Msg("Oneshot complete")
}

func splitLines(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
