// Command lyrafy-recommender runs the music taste recommendation API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/lyrafy/lyrafy-recommender/internal/auth"
	"github.com/lyrafy/lyrafy-recommender/internal/catalog"
	"github.com/lyrafy/lyrafy-recommender/internal/config"
	"github.com/lyrafy/lyrafy-recommender/internal/db"
	"github.com/lyrafy/lyrafy-recommender/internal/deezer"
	"github.com/lyrafy/lyrafy-recommender/internal/learn"
	"github.com/lyrafy/lyrafy-recommender/internal/recommend"
	"github.com/lyrafy/lyrafy-recommender/internal/taste"
	"github.com/lyrafy/lyrafy-recommender/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	authenticator, err := auth.New(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRedirectURI)
	if err != nil {
		return fmt.Errorf("creating authenticator: %w", err)
	}

	// Catalog searches run under app-level client credentials; user tokens
	// from the PKCE flow stay on the client side.
	creds := &clientcredentials.Config{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	api := spotify.New(creds.Client(ctx), spotify.WithRetry(true))

	catalogClient := catalog.New(api)
	gatherer := catalog.NewGatherer(catalogClient, log,
		catalog.WithConcurrency(cfg.SearchConcurrency))

	cache := taste.NewCache()
	analyzer := taste.NewAnalyzer(cache, log)

	recommender := recommend.NewService(database.Profiles(), gatherer, catalogClient, cache, log)
	learner := learn.NewService(database.Profiles(), database.Interactions(), log)
	previews := deezer.NewClient()

	handlers := web.NewHandlers(analyzer, database.Profiles(), recommender, learner, previews, authenticator, cache, log)
	server := web.NewServer(web.ServerConfig{
		Addr:            cfg.Addr,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, handlers, log)

	return server.Run()
}

// newLogger builds a production zap logger at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}
