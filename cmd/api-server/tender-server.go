package main

import (
	"log"
	"net/http"

	"tendermgmt/db"
	"tendermgmt/db/migrations"
	"tendermgmt/internal/config"
	"tendermgmt/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}
	if cfg.PostgresConn == "" {
		log.Fatal("POSTGRES_CONN is not set")
	}

	dbConn, err := sqlx.Connect("postgres", cfg.PostgresConn)
	if err != nil {
		log.Fatalf("Cannot connect to DB: %v", err)
	}
	defer dbConn.Close()

	migrations.Run(cfg.PostgresConn)

	store := db.NewStorage(dbConn)
	h := handlers.NewHandler(store)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		// учетные записи
		r.Post("/auth/vendor/login", h.VendorLoginHandler)
		r.Post("/auth/org/login", h.OrgLoginHandler)
		r.Post("/vendors/new", h.VendorSignupHandler)
		r.Post("/orgs/new", h.OrgSignupHandler)
		r.Get("/vendors", h.ListVendorsHandler)
		r.Delete("/vendors", h.DeleteVendorHandler)

		// тендеры
		r.Post("/tenders/new", h.CreateTenderHandler)
		r.Get("/tenders", h.GetTendersHandler)
		r.Get("/tenders/my", h.GetOrgTendersHandler)
		r.Delete("/tenders/{tenderId}", h.DeleteTenderHandler)
		r.Post("/tenders/{tenderId}/withdraw", h.WithdrawTenderHandler)
		r.Patch("/tenders/{tenderId}/edit", h.EditTenderHandler)
		r.Get("/tenders/{tenderId}/bids", h.GetTenderBidsHandler)
		r.Get("/tenders/{tenderId}/logs", h.GetTenderLogsHandler)
		r.Get("/tenders/{tenderId}/logs/export", h.ExportTenderLogsHandler)
		r.Get("/tenders/{tenderId}/can_award", h.CanAwardHandler)
		r.Post("/tenders/{tenderId}/award", h.AwardTenderHandler)

		// предложения (bids)
		r.Post("/bids/new", h.SubmitBidHandler)
		r.Get("/bids/my", h.GetVendorBidsHandler)
		r.Get("/bids/logs", h.GetVendorLogsHandler)
		r.Patch("/bids/{tenderId}/edit", h.EditBidHandler)
		r.Delete("/bids/{tenderId}", h.WithdrawBidHandler)
		r.Post("/bids/evaluate", h.EvaluateBidHandler)

		// уведомления
		r.Get("/notifications", h.ListNotificationsHandler)
		r.Get("/notifications/unread_count", h.UnreadCountHandler)
		r.Put("/notifications/read_all", h.MarkAllReadHandler)
		r.Put("/notifications/read", h.MarkReadHandler)
	})

	log.Printf("Starting server on %s", cfg.ServerAddress)
	log.Fatal(http.ListenAndServe(cfg.ServerAddress, r))
}
