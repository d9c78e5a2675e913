package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DF-PROPOSAL/internal"
	"DF-PROPOSAL/internal/config"
	"DF-PROPOSAL/internal/handlers"
	"DF-PROPOSAL/internal/logging"
	"DF-PROPOSAL/internal/metrics"
	"DF-PROPOSAL/internal/render"
	"DF-PROPOSAL/internal/services"
	"DF-PROPOSAL/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{Format: cfg.Log.Format, Level: cfg.Log.Level, Component: "proposal-server"})

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if len(cfg.Auth.APIKeys) == 0 {
		log.Warn().Msg("AUTHOR_API_KEYS is empty, every authenticated route will answer 401")
	}

	db, err := internal.InitDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer internal.CloseDB(db)

	m := metrics.New(prometheus.DefaultRegisterer)

	renderer, err := pdfRenderer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PDF renderer")
	}

	agency := services.NewStaticAgency(cfg.Agency)
	access := services.NewAccessService(db, agency, cfg.Server.PublicBaseURL, m)

	var archive *services.ArchiveService
	var archiver services.Archiver
	if cfg.GCS.BucketName != "" {
		gcsClient, err := storage.NewGCSClient(context.Background(), cfg.GCS.BucketName, cfg.GCS.ProjectID, cfg.GCS.CredentialsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize GCS client")
		}
		defer gcsClient.Close()
		archive = services.NewArchiveService(db, access, renderer, gcsClient)
		archiver = archive
		log.Info().Str("bucket", cfg.GCS.BucketName).Msg("Archiving accepted documents to GCS")
	} else {
		log.Info().Msg("GCS_BUCKET_NAME not set, accepted documents will not be archived")
	}

	router := handlers.NewRouter(handlers.Deps{
		Templates:    services.NewTemplateService(db),
		Documents:    services.NewDocumentService(db),
		Clients:      services.NewClientService(db),
		Access:       access,
		Responses:    services.NewResponseService(db, access, m, archiver),
		Exports:      services.NewExportService(renderer, cfg.Render.ExportDir),
		Archive:      archive,
		ActivityLogs: services.NewActivityLogService(db, m),
		APIKeys:      cfg.Auth.APIKeys,
		AllowOrigins: cfg.Server.AllowOrigins,
		Gatherer:     prometheus.DefaultGatherer,
	})

	cleanupService := handlers.NewFileCleanupService(cfg.Render.ExportMaxAge, cfg.Render.ExportDir)
	cleanupService.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	cleanupService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
}

func pdfRenderer(cfg *config.Config) (render.PDFRenderer, error) {
	switch cfg.Render.PDFEngine {
	case "gotenberg":
		pdf, err := services.NewPDFService(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout, render.NewHTMLRenderer())
		if err != nil {
			return nil, err
		}
		log.Info().Str("url", cfg.Gotenberg.URL).Msg("Rendering PDFs through Gotenberg")
		return pdf, nil
	default:
		return render.NewFPDFRenderer(), nil
	}
}
