package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/gymbuddy/internal/backup"
	"github.com/2beens/gymbuddy/internal/config"
	"github.com/2beens/gymbuddy/internal/db"
	"github.com/2beens/gymbuddy/internal/logging"
	"github.com/2beens/gymbuddy/internal/stats"
	"github.com/2beens/gymbuddy/internal/telemetry/metrics"
	"github.com/2beens/gymbuddy/internal/telemetry/tracing"
	"github.com/2beens/gymbuddy/internal/users"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// exports every user and uploads one json file per user per day to google drive

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	credentialsFile := flag.String(
		"gd-creds",
		"./gymbuddy-drive-credentials.json",
		"google drive service account credentials json",
	)
	logsPath := flag.String("logs-path", "", "backup logs file path (empty for config logs path)")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	logFileName := cfg.LogsPath
	if *logsPath != "" {
		logFileName = *logsPath
	}
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      logFileName,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "gymbuddy-backups",
	})

	log.Println("starting gymbuddy backup ...")

	if *credentialsFile == "" {
		log.Fatalln("google drive credentials json not specified")
	}
	credentialsFileBytes, err := os.ReadFile(*credentialsFile)
	if err != nil {
		log.Fatalf("unable to read client secret file: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctx, span := tracing.GlobalBackupTracer.Start(ctx, "cmd.backups.run")
	defer span.End()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBPassword: os.Getenv("GYMBUDDY_POSTGRES_PASS"),
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	uploader, err := backup.NewDriveUploader(
		ctx,
		option.WithCredentialsJSON(credentialsFileBytes),
		option.WithScopes(drive.DriveFileScope),
	)
	if err != nil {
		log.Fatalf("failed to create google drive uploader: %s", err)
	}
	log.Debugf("using drive folder: %s", uploader.FolderID())

	achievements, err := stats.RulesFromConfig(cfg.Achievements)
	if err != nil {
		log.Fatalf("achievements catalog: %s", err)
	}
	engine := stats.NewEngine(stats.EngineConfig{
		Location:               cfg.Location(),
		WeeklyProgressWeeks:    cfg.WeeklyProgressWeeks,
		FavoriteExercisesLimit: cfg.FavoriteExercisesLimit,
		Achievements:           achievements,
	})

	usersRepo := users.NewRepo(dbPool)
	metricsManager := metrics.NewManager("gymbuddy", "backups", prometheus.NewRegistry())
	runner := backup.NewRunner(
		usersRepo,
		backup.NewExporter(usersRepo, stats.NewPgStore(dbPool), engine),
		uploader,
		metricsManager,
	)

	begin := time.Now()
	uploaded, err := runner.Run(ctx, begin)
	span.SetAttributes(attribute.Int("backups.uploaded", uploaded))
	if err != nil {
		log.Errorf("backup finished with errors after %s, %d uploaded: %s", time.Since(begin), uploaded, err)
		span.RecordError(err)
		// deferred cleanup is skipped by os.Exit
		dbPool.Close()
		os.Exit(1)
	}

	log.Infof("backup done in %s, %d files uploaded", time.Since(begin), uploaded)
}
