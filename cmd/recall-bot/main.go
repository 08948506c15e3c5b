package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mnemolab/recall/internal/bot"
	"github.com/mnemolab/recall/internal/cards"
	"github.com/mnemolab/recall/internal/config"
	"github.com/mnemolab/recall/internal/database"
	"github.com/mnemolab/recall/internal/decks"
	"github.com/mnemolab/recall/internal/logging"
	"github.com/mnemolab/recall/internal/reminder"
	"github.com/mnemolab/recall/internal/server"
	"github.com/mnemolab/recall/internal/session"
	"github.com/mnemolab/recall/internal/telegram"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "recall-bot",
		Short: "Spaced-repetition flashcard bot",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "Status HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Int("reminder-first-delay", defaults.GetInt("reminder.first_delay_seconds"), "Seconds before a new reminder fires for the first time")
	cmd.PersistentFlags().Int("session-ttl", defaults.GetInt("session.ttl_minutes"), "Minutes before a stale review session expires")
	cmd.PersistentFlags().String("telegram-token", "", "Telegram bot token (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "reminder.first_delay_seconds", "reminder-first-delay")
	bindFlag(cmd, "session.ttl_minutes", "session-ttl")
	bindFlag(cmd, "telegram.token", "telegram-token")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return err
		}
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runBot(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	cardService, err := cards.NewService(cards.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	deckService, err := decks.NewService(decks.ServiceConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	transport, err := telegram.NewClient(telegram.ClientConfig{
		Token:  appConfig.TelegramToken,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	reminders, err := reminder.NewScheduler(reminder.SchedulerConfig{
		Notifier:   bot.DueNotifier(cardService, transport),
		FirstDelay: appConfig.ReminderFirstDelay,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer reminders.Stop()

	router, err := bot.NewRouter(bot.Dependencies{
		Cards:     cardService,
		Decks:     deckService,
		Sessions:  session.NewStore(session.StoreConfig{TTL: appConfig.SessionTTL}),
		Reminders: reminders,
		Transport: transport,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("status server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	pollDone := make(chan struct{})
	go func() {
		logger.Info("bot polling for updates")
		transport.Poll(signalCtx, router)
		close(pollDone)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		<-pollDone
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
