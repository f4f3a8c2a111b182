package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/nhle/watertracker/internal/app"
	"github.com/nhle/watertracker/internal/credential"
	"github.com/nhle/watertracker/internal/ledger"
	"github.com/nhle/watertracker/internal/logging"
	"github.com/nhle/watertracker/internal/model"
	"github.com/nhle/watertracker/internal/notify"
	"github.com/nhle/watertracker/internal/reminder"
	"github.com/nhle/watertracker/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "watertracker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.StringP("config", "c", model.DefaultConfigPath(), "path to the config file")
	dbPath := pflag.String("db", "", "path to the SQLite database (overrides config)")
	logLevel := pflag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	pushToken := pflag.String("set-push-token", "", "store the push token in the system keyring and exit")
	clearToken := pflag.Bool("clear-push-token", false, "remove the push token from the system keyring and exit")
	pflag.Parse()

	if *clearToken {
		if err := credential.Delete(credential.PushTokenKey); err != nil && !errors.Is(err, credential.ErrNotFound) {
			return fmt.Errorf("removing push token: %w", err)
		}
		fmt.Println("Push token removed.")
		return nil
	}
	if *pushToken != "" {
		if err := credential.Set(credential.PushTokenKey, *pushToken); err != nil {
			return fmt.Errorf("saving push token: %w", err)
		}
		fmt.Println("Push token saved.")
		return nil
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger, logCloser, err := logging.New(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	l := ledger.New(s,
		ledger.WithLogger(logger),
		ledger.WithDefaultGoal(cfg.Ledger.DefaultGoalML),
		ledger.WithDefaultUnits(model.ParseUnits(cfg.Display.Units)),
		ledger.WithGoalListener(func(ctx context.Context, r ledger.Receipt) {
			err := s.CreateNotification(ctx, model.Notification{
				Kind:      model.NotificationGoalAchieved,
				Title:     "Daily goal reached",
				Message:   fmt.Sprintf("You drank %d ml of your %d ml goal today.", r.Total, r.Goal),
				CreatedAt: r.Entry.Timestamp,
			})
			if err != nil {
				logger.Warn("recording goal notification", "error", err)
			}
		}),
	)

	queue := notify.NewQueue(s, cfg.Notifications.Enabled, logger)
	sched := reminder.New(queue, s,
		reminder.WithHorizon(cfg.Reminders.HorizonDays),
		reminder.WithLogger(logger),
	)

	var sender notify.Sender
	if cfg.Push.Enabled && cfg.Push.URL != "" {
		token, err := credential.PushToken()
		if err != nil {
			logger.Warn("reading push token", "error", err)
		}
		sender = notify.MultiSender{notify.NewPushSender(cfg.Push.URL, token)}
	}

	dispatcher := notify.NewDispatcher(s, sender,
		notify.WithInterval(time.Duration(cfg.Reminders.DispatchIntervalSec)*time.Second),
		notify.WithDispatchLogger(logger),
	)
	if cfg.Reminders.RefreshSchedule != "" {
		err := dispatcher.ScheduleRefresh(cfg.Reminders.RefreshSchedule, func(ctx context.Context) error {
			_, err := sched.Refresh(ctx, time.Now())
			return err
		})
		if err != nil {
			return err
		}
	}

	logger.Info("starting", "db", cfg.Database.Path, "config", *configPath)

	p := tea.NewProgram(app.New(app.Deps{
		Config:     *cfg,
		ConfigPath: *configPath,
		Store:      s,
		Ledger:     l,
		Scheduler:  sched,
		Queue:      queue,
		Dispatcher: dispatcher,
		Logger:     logger,
	}), tea.WithAltScreen())

	_, err = p.Run()
	dispatcher.Stop()
	return err
}
