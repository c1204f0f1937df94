package main

import (
	"context"
	"fmt"
	"log"

	"devhub-api/core"
)

func main() {
	cfg := core.Load()
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	if err := core.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	// Redis only backs the GitHub proxy cache; the API runs without it.
	var github core.GithubClient = core.NewHTTPGithubClient(cfg)
	if cfg.RedisURL != "" {
		redisClient, err := core.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Printf("redis unavailable, github cache disabled: %v", err)
		} else {
			defer redisClient.Close()
			github = core.NewCachedGithubClient(github, redisClient, cfg)
		}
	}

	issuer := core.NewTokenIssuer(cfg)
	users := core.NewPgUserRepository(db)
	profiles := core.NewPgProfileRepository(db)
	posts := core.NewPgPostRepository(db)

	router := core.NewRouter(cfg, issuer, users, profiles, posts, github)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting api server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
