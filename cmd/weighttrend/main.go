package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	adapthttp "weighttrend/internal/adapter/http"
	"weighttrend/internal/adapter/memory"
	"weighttrend/internal/adapter/postgres"
	"weighttrend/internal/adapter/sqlite"
	"weighttrend/internal/app"
	"weighttrend/internal/config"
	"weighttrend/internal/domain"
	"weighttrend/internal/forecast"
)

type store interface {
	domain.ObservationRepository
	domain.UserRepository
}

func main() {
	var configPath string
	var verbose bool

	root := &cobra.Command{
		Use:   "weighttrend",
		Short: "Weight tracking and forecasting server for a small household",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.New()
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			return run(configPath, log)
		},
		SilenceUsage: true,
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (optional)")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string, log *logrus.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var (
		repo        store
		sessionRepo domain.SessionRepository
		closeStore  func() error
	)
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.Open(cfg.DSN)
		if err != nil {
			return err
		}
		repo, sessionRepo, closeStore = db, postgres.NewSessionRepo(db), db.Close
	case "sqlite":
		db, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return err
		}
		repo, sessionRepo, closeStore = db, sqlite.NewSessionRepo(db), db.Close
	case "memory":
		db := memory.New()
		repo, sessionRepo, closeStore = db, db.NewSessionRepo(), func() error { return nil }
	}
	defer func() { _ = closeStore() }()

	trainer := forecast.NewTrainer(
		forecast.NewBuilder(cfg.MinObservations),
		cfg.Model,
		log.WithField("component", "trainer"),
	)

	recordsSvc := app.NewRecordsService(repo, trainer)
	forecastSvc := app.NewForecastService(repo, trainer, cfg.ForecastEnabled, cfg.HorizonDays,
		log.WithField("component", "forecast"))
	chartsSvc := app.NewChartsService(repo, repo, forecastSvc, cfg.Users, cfg.Unit,
		log.WithField("component", "charts"))
	authSvc := app.NewAuthService(repo, sessionRepo, cfg.Users)

	h := adapthttp.New(recordsSvc, chartsSvc, forecastSvc, authSvc, log, cfg.WebDir).Handler()

	go func() {
		for range time.Tick(time.Hour) {
			if err := sessionRepo.DeleteExpired(context.Background()); err != nil {
				log.WithError(err).Warn("session cleanup failed")
			}
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":   cfg.Addr,
		"driver": cfg.Driver,
		"users":  cfg.Users,
	}).Info("listening")
	if err := http.ListenAndServe(cfg.Addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
