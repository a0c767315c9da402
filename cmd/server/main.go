package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/possuite/go-pos-server/internal/config"
	"github.com/possuite/go-pos-server/server"
	"github.com/possuite/go-pos-server/session"
	"github.com/possuite/go-pos-server/session/redisstore"
	storesmongo "github.com/possuite/go-pos-server/stores/mongorepo"
	usersmongo "github.com/possuite/go-pos-server/users/mongorepo"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	c := config.New()
	initLogger(c)
	displayAppname(c.GetAppName())

	// Missing signing secrets are fatal: there is no way to issue or verify
	// a single token without them.
	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := redisstore.New(ctx, c.GetRedisURL())
	if err != nil {
		return errors.Wrap(err, "redis")
	}
	defer func() { _ = kv.Close() }()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(c.GetMongoURI()))
	if err != nil {
		return errors.Wrap(err, "mongodb connect")
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		return errors.Wrap(err, "mongodb ping")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	db := mongoClient.Database(c.GetMongoDatabase())

	sessions := session.NewManager(kv,
		c.GetAccessTokenSecret(),
		c.GetRefreshTokenSecret(),
		session.WithTokenTTLs(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
		session.WithLogger(log.Logger),
	)

	srv := &http.Server{
		Addr: c.GetPort(),
		Handler: server.New(c, sessions, server.Repos{
			Users:  usersmongo.New(db),
			Stores: storesmongo.New(db),
		}),
	}

	go listenAndServe(srv)
	waitForStopSignal()
	return shutdown(srv)
}

func initLogger(c config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func listenAndServe(srv *http.Server) {
	log.Info().Str("addr", srv.Addr).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
