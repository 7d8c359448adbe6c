package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/prms-app/prms-server/internal/config"
	"github.com/prms-app/prms-server/internal/database"
	"github.com/prms-app/prms-server/internal/handler"
	"github.com/prms-app/prms-server/internal/mailer"
	"github.com/prms-app/prms-server/internal/queue"
	"github.com/prms-app/prms-server/internal/repository"
	"github.com/prms-app/prms-server/internal/router"
	"github.com/prms-app/prms-server/internal/service"
	"github.com/prms-app/prms-server/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("database migrate failed: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	projects := repository.NewProjectRepo(db)
	sprints := repository.NewSprintRepo(db)
	tasks := repository.NewTaskRepo(db)

	selector := service.NewAssignmentSelector(tasks, users)
	reset := service.NewPasswordResetFlow(users, mailer.New(cfg), utils.BcryptHasher{Cost: cfg.BcryptCost})

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e, cfg, rdb, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, tokens, reset),
		Projects: handler.NewProjectHandler(projects, sprints, tasks),
		Sprints:  handler.NewSprintHandler(sprints),
		Tasks:    handler.NewTaskHandler(tasks, selector),
	})

	// Assignment log consumer; reconnects on its own if the broker drops.
	go queue.StartTaskAssignedConsumer()

	log.Printf("starting server on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
