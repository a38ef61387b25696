package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/paperbridge/bookstore-go/api"
	"github.com/paperbridge/bookstore-go/bridge"
	"github.com/paperbridge/bookstore-go/cache"
	"github.com/paperbridge/bookstore-go/catalog"
	"github.com/paperbridge/bookstore-go/config"
	"github.com/paperbridge/bookstore-go/email"
	"github.com/paperbridge/bookstore-go/events"
	"github.com/paperbridge/bookstore-go/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found -- config defaults will be used")
	}

	db, err := store.NewDatabase()
	if err != nil {
		log.Fatalf("Failed to open visitor-state database: %v", err)
	}
	defer db.Close()
	log.Printf("Visitor-state database ready: %s", db.GetConnectionInfo())

	if err := store.Migrate(db); err != nil {
		log.Fatalf("Visitor-state migration failed: %v", err)
	}

	sessions := cache.NewManager()
	cache.StartCleanupRoutine(sessions)

	dedup := events.NewDedupGate()
	dedup.StartSweepRoutine(config.DedupSweepInterval)

	personalize := bridge.NewService()
	app := api.NewApp(db, sessions, personalize, dedup, catalog.NewClient(), catalog.NewImageProcessor(config.MediaPath), email.NewClient())

	r := gin.Default()
	r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:4321", // Astro dev server
			"http://127.0.0.1:3000",
			"http://127.0.0.1:4321",
		},
		AllowMethods: []string{
			"GET", "POST", "PUT", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-Bookstore-Session-ID", "X-Bookstore-Visitor-ID",
		},
		AllowCredentials: true,
	}))

	r.Use(api.AppMiddleware(app))
	r.Use(bridge.EdgeMiddleware(personalize))

	r.Static("/media", config.MediaPath)

	r.POST("/api/v1/auth/visit", api.VisitHandler)
	r.POST("/api/v1/auth/profile", api.ProfileHandler)
	r.GET("/api/v1/auth/profile/decode", api.DecodeProfileHandler)
	r.GET("/api/v1/db/status", api.DBStatusHandler)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/events", api.EventsHandler)
		v1.GET("/audience", api.AudienceHandler)
		v1.GET("/preferences", api.GetPreferencesHandler)
		v1.PUT("/preferences", api.PutPreferencesHandler)
		v1.POST("/notify", api.NotifyHandler)

		v1.GET("/books", api.GetBooksHandler)
		v1.GET("/books/:id", api.GetBookHandler)
		v1.POST("/books/:id/cover", api.UploadCoverHandler)
	}

	log.Printf("Starting server on :%s", config.Port)
	if err := r.Run(":" + config.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
