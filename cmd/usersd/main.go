package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	users "github.com/goliatone/go-users"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	cfg := users.LoadConfig()

	if cfg.GetSigningKey() == "" {
		log.Fatal("JWT_SECRET is required")
	}

	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	repo := users.NewRepositoryManager(db)
	repo.MustValidate()

	manager := users.NewAccountManager(repo)
	auther := users.NewAuthenticator(repo, cfg)

	controller := users.NewUserController(
		users.WithManager(manager),
		users.WithAuthenticator(auther),
	)

	app := fiber.New(fiber.Config{
		AppName:      "usersd",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	controller.RegisterRoutes(app, auther.TokenService())

	go func() {
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func openDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.NewCreateTable().
		Model((*users.Credentials)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, err
	}

	if _, err := db.NewCreateTable().
		Model((*users.User)(nil)).
		IfNotExists().
		WithForeignKeys().
		Exec(ctx); err != nil {
		return nil, err
	}

	return db, nil
}
