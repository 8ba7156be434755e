package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/qcm-trainer/backend/internal/auth"
	"github.com/qcm-trainer/backend/internal/completion"
	"github.com/qcm-trainer/backend/internal/config"
	"github.com/qcm-trainer/backend/internal/database"
	"github.com/qcm-trainer/backend/internal/library"
	"github.com/qcm-trainer/backend/internal/quiz"
	"github.com/qcm-trainer/backend/internal/results"
)

func main() {
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Shared completion client: quiz generation, explanations and
	// import metadata all go through the same one.
	client := completion.NewClient(cfg)

	authHandler, err := auth.NewHandler(cfg.JWTSecret, cfg.TeacherPassphrase)
	if err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}

	libraryStore := library.NewStore(db)
	libraryHandler := library.NewHandler(libraryStore, library.NewMetadataExtractor(client))

	resultStore := results.NewStore(db)
	resultHandler := results.NewHandler(resultStore)

	quizService := quiz.NewService(
		quiz.NewGenerator(client, cfg.MaxBatchSize),
		quiz.NewExplainer(client),
		resultStore,
	)
	quizHandler := quiz.NewHandler(quizService, libraryHandler)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(authHandler.Middleware)

	api.HandleFunc("/auth/role", authHandler.ClaimRole).Methods("POST")
	libraryHandler.RegisterRoutes(api, authHandler.RequireTeacher)
	resultHandler.RegisterRoutes(api)
	quizHandler.RegisterRoutes(api)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	log.Printf("Server starting on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
