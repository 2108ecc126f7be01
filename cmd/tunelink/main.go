// Package main provides the TuneLink CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/errgroup"

	"tunelink/internal/core"
	"tunelink/internal/creds"
	httpserver "tunelink/internal/http"
	"tunelink/internal/platform/itunes"
	"tunelink/internal/platform/spotify"
	"tunelink/internal/platform/youtube"
	"tunelink/internal/prefs"
	"tunelink/internal/resolver"
	"tunelink/internal/store"
	"tunelink/pkg/musiclink"
)

const spotifyTokenURL = "https://accounts.spotify.com/api/token"

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tunelink",
	Short: "TuneLink - smart music link redirector",
	Long: `TuneLink resolves a music link from one streaming platform into the
equivalent track on the caller's preferred platform and redirects there,
falling back to a listing page when no confident match exists.`,
	RunE: runTuneLink,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("youtube-api-key", "", "YouTube Data API key")
	rootCmd.PersistentFlags().String("itunes-country", "US", "iTunes storefront country code")
	rootCmd.PersistentFlags().String("prefs-db-path", "./tunelink_prefs.db", "preference database path")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().Duration("client-timeout", 5*time.Second, "per-provider call timeout")
	rootCmd.PersistentFlags().Int("cache-size", 4096, "resolution cache capacity")
	rootCmd.PersistentFlags().Duration("cache-ttl", 15*time.Minute, "resolution cache entry lifetime")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("TUNELINK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")

	cfg.YouTube.APIKey = viper.GetString("youtube-api-key")

	if country := viper.GetString("itunes-country"); country != "" {
		cfg.ITunes.Country = country
	}

	if path := viper.GetString("prefs-db-path"); path != "" {
		cfg.Prefs.DBPath = path
	}

	if host := viper.GetString("server-host"); host != "" {
		cfg.Server.Host = host
	}
	if port := viper.GetInt("server-port"); port != 0 {
		cfg.Server.Port = port
	}

	if timeout := viper.GetDuration("client-timeout"); timeout != 0 {
		cfg.Resolver.ClientTimeout = timeout
	}
	if size := viper.GetInt("cache-size"); size != 0 {
		cfg.Resolver.CacheSize = size
	}
	if ttl := viper.GetDuration("cache-ttl"); ttl != 0 {
		cfg.Resolver.CacheTTL = ttl
	}

	cfg.Log.Level = viper.GetString("log-level")

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runTuneLink(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting TuneLink",
		zap.Bool("spotify_enabled", config.Spotify.ClientID != "" && config.Spotify.ClientSecret != ""),
		zap.Bool("youtube_enabled", config.YouTube.APIKey != ""))

	manager := creds.NewManager(logger.Named("creds"))
	if config.Spotify.ClientID != "" && config.Spotify.ClientSecret != "" {
		manager.Register(musiclink.PlatformSpotify, &clientcredentials.Config{
			ClientID:     config.Spotify.ClientID,
			ClientSecret: config.Spotify.ClientSecret,
			TokenURL:     spotifyTokenURL,
		})
	}

	// Fixed priority order: Spotify, Apple Music, YouTube. Clients without
	// credentials report themselves unavailable and are skipped.
	clients := []core.Client{
		spotify.NewClient(manager, nil, logger.Named("spotify")),
		itunes.NewClient(&config.ITunes, nil, logger.Named("itunes")),
		youtube.NewClient(&config.YouTube, nil, logger.Named("youtube")),
	}

	cache := store.NewResultCache(config.Resolver.CacheSize, config.Resolver.CacheTTL)
	trackResolver := resolver.New(clients, cache, config.Resolver, logger.Named("resolver"))

	prefStore, err := prefs.Open(config.Prefs.DBPath, logger.Named("prefs"))
	if err != nil {
		return fmt.Errorf("failed to open preference store: %w", err)
	}
	defer prefStore.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpServer := httpserver.NewServer(&config.Server, trackResolver, prefStore, registry, logger.Named("http"))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	logger.Info("TuneLink started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("TuneLink stopped with error", zap.Error(err))
		return err
	}

	logger.Info("TuneLink stopped gracefully")
	return nil
}
