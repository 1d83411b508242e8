package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"

	"appealbot/internal/admin"
	"appealbot/internal/appeal"
	"appealbot/internal/bot"
	"appealbot/internal/config"
	"appealbot/internal/database"
	"appealbot/internal/dialogue"
	"appealbot/internal/notification"
	"appealbot/internal/status"
	"appealbot/pkg/log"
)

// App owns every long-lived component and wires them together. Construction
// order matters: the bot must exist before the notification layer because
// the bot is the sender, and the usecases attach to the bot last.
type App struct {
	conf     config.Static
	database database.Database

	admins        *admin.Admins
	appeals       *appeal.Appeals
	dialogue      *dialogue.Dialogue
	notifications *notification.Notifications
	monitor       *status.Monitor
	bot           *bot.Bot

	logCloser func()
}

func NewApp(ctx context.Context, configFile string) (*App, error) {
	conf, errConf := config.ReadStatic(configFile)
	if errConf != nil {
		return nil, errConf
	}

	useSentry := conf.Log.SentryDSN != ""
	if useSentry {
		if errSentry := sentry.Init(sentry.ClientOptions{
			Dsn:     conf.Log.SentryDSN,
			Release: BuildVersion,
		}); errSentry != nil {
			return nil, errSentry //nolint:wrapcheck
		}
	}

	logCloser := log.MustCreateLogger(ctx, conf.Log.File, conf.Log.Level, useSentry)

	return &App{
		conf:      conf,
		database:  database.New(conf.DB.DSN, conf.DB.AutoMigrate, conf.DB.LogQueries),
		monitor:   status.NewMonitor(),
		logCloser: logCloser,
	}, nil
}

// Init connects storage, builds the usecase graph and seeds the roster.
func (app *App) Init(ctx context.Context) error {
	if errConnect := app.database.Connect(ctx); errConnect != nil {
		return errConnect
	}

	appealBot, errBot := bot.New(app.conf, app.monitor)
	if errBot != nil {
		return errBot
	}

	app.bot = appealBot
	app.notifications = notification.New(appealBot, app.conf.Notification.SendTimeout)
	app.admins = admin.NewAdmins(admin.NewRepository(app.database), app.conf.General.OwnerID)
	app.appeals = appeal.NewAppeals(appeal.NewRepository(app.database), app.admins, app.notifications)
	app.dialogue = dialogue.New(app.appeals, app.conf.Dialogue.SessionTimeout)

	appealBot.Attach(app.appeals, app.admins, app.dialogue, app.notifications)

	if errSeed := app.admins.Seed(ctx, app.conf.General.AdminIDs); errSeed != nil {
		return errSeed
	}

	return nil
}

// Serve runs the bot and background sweeps until ctx is cancelled.
func (app *App) Serve(ctx context.Context) error {
	go app.dialogue.StartSweeper(ctx)

	slog.Info("Bot started", slog.Int64("owner_id", app.conf.General.OwnerID),
		slog.String("version", BuildVersion))

	return app.bot.Start(ctx)
}

func (app *App) Close(_ context.Context) error {
	if app.database != nil {
		if errClose := app.database.Close(); errClose != nil {
			slog.Error("Failed to close database", log.ErrAttr(errClose))
		}
	}

	if app.conf.Log.SentryDSN != "" {
		sentry.Flush(2 * time.Second)
	}

	if app.logCloser != nil {
		app.logCloser()
	}

	return nil
}
