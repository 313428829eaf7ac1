package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	api "github.com/campus-metrics/egreso/internal/api/http"
	auth "github.com/campus-metrics/egreso/internal/auth/middleware"
	"github.com/campus-metrics/egreso/internal/config"
	"github.com/campus-metrics/egreso/internal/dataset"
	"github.com/campus-metrics/egreso/internal/db"
	"github.com/campus-metrics/egreso/internal/rbac"
	syncx "github.com/campus-metrics/egreso/internal/sync"
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
	store := dataset.NewSQLStore(dbh, syncx.NewEventRepo(dbh))

	if err := bootstrapAdmin(ctx, dbh, cfg); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("dataset:upload")).
			Post("/datasets", api.UploadDatasetHandler(store))
		// Basic guard: own-or-all can be tightened later with an owner check helper
		pr.With(rbac.RequireAny("dataset:view-own", "dataset:view-all")).
			Get("/datasets/{datasetID}", api.GetDatasetHandler(store))
		pr.With(rbac.RequireAny("dataset:view-own", "dataset:view-all")).
			Get("/datasets/{datasetID}/records", api.GetEnrichedRecordsHandler(store))

		pr.With(rbac.Require("report:compute")).
			Post("/datasets/{datasetID}/report", api.ComputeReportHandler(store))
		pr.With(rbac.RequireAny("report:view-own", "report:view-all")).
			Get("/reports/{reportID}", api.GetReportHandler(store))
		pr.With(rbac.RequireAny("report:view-own", "report:view-all")).
			Get("/students/{studentID}/reports", api.ListStudentReportsHandler(store))

		// Users (advisor/admin)
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// bootstrapAdmin seeds the admin account on first run. ADMIN_PASS_HASH must
// hold a bcrypt hash; without it no account is created.
func bootstrapAdmin(ctx context.Context, dbh *sql.DB, cfg config.Config) error {
	if cfg.AdminPassHash == "" {
		return nil
	}
	var n int
	err := dbh.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE username=$1`, cfg.AdminUser).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = dbh.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
		uuid.NewString(), cfg.AdminUser, cfg.AdminPassHash, "admin", time.Now().Unix())
	return err
}
