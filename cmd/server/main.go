package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/kata-app/kata-backend/internal/config"
	"github.com/kata-app/kata-backend/internal/database"
	"github.com/kata-app/kata-backend/internal/handlers"
	"github.com/kata-app/kata-backend/internal/middleware"
	"github.com/kata-app/kata-backend/internal/realtime"
	"github.com/kata-app/kata-backend/internal/remote"
	"github.com/kata-app/kata-backend/internal/routes"
	"github.com/kata-app/kata-backend/internal/session"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Connect to PostgreSQL (auth principals)
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	if err := database.InitPostgresTables(); err != nil {
		log.Fatal("Failed to initialize PostgreSQL tables:", err)
	}

	// Connect to Redis (sessions, rate limits, feed pub/sub)
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB (profiles, contributions)
	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	// Asset store is optional: without credentials the server runs but
	// uploads report a storage failure.
	var assets *remote.AssetStore
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		var err error
		assets, err = remote.NewAssetStore(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("Media uploads will not be available")
		} else {
			log.Println("✅ Cloudinary asset store initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Media uploads will not be available")
	}

	gateway := remote.New(database.PostgresDB, database.DB, database.RedisClient, assets)
	handlers.Init(gateway)

	// Session store mirrors the gateway's auth-state stream for the life of
	// the process.
	sessions := session.NewStore(gateway, gateway)
	defer sessions.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	realtime.StartRedisFeedSubscriber(ctx)

	// Setup router
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Production: SecurityHeaders → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r)

	log.Printf("🚀 Kata backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
