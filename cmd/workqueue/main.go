package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/workqueue-dev/workqueue/db"
	"github.com/workqueue-dev/workqueue/internal/auth"
	"github.com/workqueue-dev/workqueue/internal/handlers"
	"github.com/workqueue-dev/workqueue/internal/router"
	"github.com/workqueue-dev/workqueue/internal/scheduler"
	"github.com/workqueue-dev/workqueue/internal/services/mail"
	"github.com/workqueue-dev/workqueue/internal/services/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")

	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if err := db.ConnectDatabase(dsn); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	mailer := mail.NewFromEnv()

	files, err := storage.NewDisk("uploads", "/uploads")

	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	handlers.Init(mailer, files)

	scheduler.Initialize(scheduler.NewStore(db.DB), mailer)
	defer scheduler.Shutdown()

	r := router.NewRouter()

	var port string

	if port = os.Getenv("PORT"); port == "" {
		port = "3000"
		log.Println("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
