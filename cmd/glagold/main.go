package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/glagol-app/glagol/internal/api/http"
	"github.com/glagol-app/glagol/internal/auth"
	"github.com/glagol-app/glagol/internal/config"
	"github.com/glagol-app/glagol/internal/db"
	"github.com/glagol-app/glagol/internal/rbac"
	"github.com/glagol-app/glagol/internal/store"
	"github.com/glagol-app/glagol/internal/task"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	st := store.NewSQLStore(dbh, db.Driver(cfg.DBDriver))

	if err := seedAdmin(ctx, cfg, st); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	// --- Engine ---
	registry := task.NewRegistry(task.Deps{Source: st, Log: st})
	svc := task.NewService(registry, st)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.JWTSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsDev
	if cfg.Mode == config.ModeProd {
		origins = cfg.CORSOriginsProd
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/api/auth/login", api.LoginHandler(authSvc, st))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRole())

		pr.With(rbac.Require("category:view")).
			Get("/api/categories", api.ListCategoriesHandler(st))
		pr.With(rbac.Require("category:view")).
			Get("/api/categories/{categoryID}", api.ChildCategoriesHandler(st))
		pr.With(rbac.Require("category:select")).
			Post("/api/categories/{categoryID}/select", api.SelectCategoryHandler(st))
		pr.With(rbac.Require("category:create")).
			Post("/api/categories", api.CreateCategoryHandler(st))

		pr.With(rbac.Require("task:start")).
			Post("/api/tasks", api.StartTaskHandler(svc))
		pr.With(rbac.Require("task:answer")).
			Post("/api/tasks/answer", api.SubmitAnswerHandler(svc))

		pr.With(rbac.Require("exercise:import")).
			Post("/api/exercises/import", api.ImportExercisesHandler(st))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("glagold listening on %s (mode=%s driver=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}

// seedAdmin ensures the configured admin account exists.
func seedAdmin(ctx context.Context, cfg config.Config, st *store.SQLStore) error {
	if cfg.AdminPassHash == "" {
		return nil
	}
	if _, err := st.UserByUsername(ctx, cfg.AdminUser); err == nil {
		return nil
	}
	_, err := st.CreateUser(ctx, cfg.AdminUser, cfg.AdminPassHash, "admin")
	return err
}
