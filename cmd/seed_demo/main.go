package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/2beens/gymbuddy/internal/bodyweight"
	"github.com/2beens/gymbuddy/internal/config"
	"github.com/2beens/gymbuddy/internal/db"
	"github.com/2beens/gymbuddy/internal/history"
	"github.com/2beens/gymbuddy/internal/logging"
	"github.com/2beens/gymbuddy/internal/users"
	"github.com/2beens/gymbuddy/internal/workouts"
	"github.com/2beens/gymbuddy/pkg"

	"github.com/brianvoe/gofakeit/v6"
	log "github.com/sirupsen/logrus"
)

// seeds a demo user with templates, workout history and body weight samples

func main() {
	env := flag.String("env", "development", "environment [dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	days := flag.Int("days", 60, "number of past days to generate workouts for")
	seed := flag.Int64("seed", 0, "faker seed, 0 for random")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}
	if cfg.Environment == "prod" || cfg.Environment == "production" {
		log.Fatalln("refusing to seed demo data in production")
	}

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
	})

	ctx := context.Background()
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

	if err := db.EnsureSchema(ctx, dbPool); err != nil {
		log.Fatalf("ensure schema: %s", err)
	}

	data := newDemoData(gofakeit.New(*seed), time.Now().In(cfg.Location()), *days)

	passwordHash, err := pkg.HashPassword(data.password)
	if err != nil {
		log.Fatalf("hash password: %s", err)
	}
	data.user.PasswordHash = passwordHash
	user, err := users.NewRepo(dbPool).Add(ctx, data.user)
	if err != nil {
		log.Fatalf("add demo user: %s", err)
	}

	templatesRepo := workouts.NewRepo(dbPool)
	templateIDs := make([]int, len(data.templates))
	for i, template := range data.templates {
		template.UserID = user.ID
		added, err := templatesRepo.Add(ctx, template)
		if err != nil {
			log.Fatalf("add template %s: %s", template.Title, err)
		}
		templateIDs[i] = added.ID
	}

	recordsRepo := history.NewRepo(dbPool)
	for _, w := range data.workouts {
		record := w.record
		record.UserID = user.ID
		record.TemplateID = templateIDs[w.templateIndex]
		volume := data.templates[w.templateIndex].Volume()
		record.TotalVolume = &volume
		if _, err := recordsRepo.Add(ctx, record); err != nil {
			log.Fatalf("add workout record: %s", err)
		}
	}

	weightsRepo := bodyweight.NewRepo(dbPool)
	for _, sample := range data.weights {
		sample.UserID = user.ID
		if _, err := weightsRepo.Add(ctx, sample); err != nil {
			log.Fatalf("add body weight sample: %s", err)
		}
	}

	log.Infof(
		"demo user seeded: id=%d email=%s password=%s templates=%d workouts=%d weights=%d",
		user.ID, user.Email, data.password, len(data.templates), len(data.workouts), len(data.weights),
	)
}
