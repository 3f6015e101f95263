// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/wynnextras/server/cliparse"
	"github.com/wynnextras/server/consensus"
	"github.com/wynnextras/server/handlers"
	"github.com/wynnextras/server/middleware"
	"github.com/wynnextras/server/verified"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, verifier handlers.Verifier, registry *verified.Registry) *http.ServeMux {
	mux := http.NewServeMux()

	engine := consensus.NewEngine(db, registry, cfg.ApproveThreshold, cfg.LockThreshold)

	// Initialize handlers
	lootPoolHandler := handlers.NewLootPoolHandler(engine, verifier)
	lootrunHandler := handlers.NewLootrunHandler(engine, verifier)
	gambitHandler := handlers.NewGambitHandler(engine, verifier)
	aspectHandler := handlers.NewAspectHandler(db, verifier)
	userHandler := handlers.NewUserHandler(db, verifier)
	achievementHandler := handlers.NewAchievementHandler(db, verifier)
	adminHandler := handlers.NewAdminHandler(registry)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Crowd-sourced pools (consensus)
	mux.HandleFunc("POST /lootpool/{raidType}", middleware.WithLogging(lootPoolHandler.Submit))
	mux.HandleFunc("GET /lootpool/{raidType}", middleware.WithLogging(lootPoolHandler.Get))
	mux.HandleFunc("POST /lootrun/{lootrunType}", middleware.WithLogging(lootrunHandler.Submit))
	mux.HandleFunc("GET /lootrun/{lootrunType}", middleware.WithLogging(lootrunHandler.Get))
	mux.HandleFunc("POST /gambit", middleware.WithLogging(gambitHandler.Submit))
	mux.HandleFunc("GET /gambit", middleware.WithLogging(gambitHandler.Get))

	// Personal aspect tracking
	mux.HandleFunc("POST /user", middleware.WithLogging(aspectHandler.Upload))
	mux.HandleFunc("GET /user", middleware.WithLogging(aspectHandler.Get))
	mux.HandleFunc("GET /user/leaderboard", middleware.WithLogging(aspectHandler.Leaderboard))
	mux.HandleFunc("GET /user/list", middleware.WithLogging(aspectHandler.List))

	// Mod user presence
	mux.HandleFunc("POST /wynnextras-users/heartbeat", middleware.WithLogging(userHandler.Heartbeat))
	mux.HandleFunc("GET /wynnextras-users/active", middleware.WithLogging(userHandler.Active))
	mux.HandleFunc("GET /wynnextras-users/active/details", middleware.WithLogging(userHandler.ActiveDetails))
	mux.HandleFunc("GET /wynnextras-users/stats", middleware.WithLogging(userHandler.Stats))

	// Achievements
	mux.HandleFunc("POST /achievements", middleware.WithLogging(achievementHandler.Sync))
	mux.HandleFunc("GET /achievements", middleware.WithLogging(achievementHandler.Get))
	mux.HandleFunc("GET /achievements/player", middleware.WithLogging(achievementHandler.Player))
	mux.HandleFunc("GET /achievements/players", middleware.WithLogging(achievementHandler.Players))
	mux.HandleFunc("GET /achievements/leaderboard", middleware.WithLogging(achievementHandler.Leaderboard))

	// Admin
	mux.HandleFunc("POST /admin/reload-verified-users", middleware.WithLogging(adminHandler.ReloadVerifiedUsers))
	mux.HandleFunc("GET /admin/verified-users/count", middleware.WithLogging(adminHandler.CountVerifiedUsers))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("wynnextras API v1"))
	})

	return mux
}
