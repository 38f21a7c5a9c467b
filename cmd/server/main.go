package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"

	"github.com/katakuxiko/faqbot/internal/api"
	"github.com/katakuxiko/faqbot/internal/config"
	"github.com/katakuxiko/faqbot/internal/pdf"
	"github.com/katakuxiko/faqbot/internal/service"
	"github.com/katakuxiko/faqbot/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// provider
	var llm service.Provider
	var embedder store.Embedder
	switch cfg.Provider {
	case config.ProviderGemini:
		g, err := service.NewGeminiClient(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("gemini client: %v", err)
		}
		llm = g
	default:
		c := service.NewLLMClient(cfg)
		llm, embedder = c, c
	}

	// passage index
	var index store.PassageIndex
	switch cfg.Retrieval {
	case config.RetrievalKeyword:
		index = store.NewKeywordIndex()
	case config.RetrievalPgvector:
		pg, err := store.NewPgIndex(ctx, cfg.PgConn, embedder)
		if err != nil {
			log.Fatalf("pgvector index: %v", err)
		}
		defer pg.Close()
		index = pg
	}

	// services
	docs := store.NewDocumentStore()
	rag := service.NewOrchestrator(docs, llm, service.Options{
		Instruction:   cfg.SystemInstruction,
		HistoryWindow: cfg.HistoryWindow,
		Timeout:       cfg.RequestTimeout,
		Index:         index,
		TopK:          cfg.TopK,
	})
	ingest := service.NewIngestor(docs, pdf.NewExtractor(), service.IngestOptions{
		UploadDir:    cfg.UploadDir,
		Index:        index,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	})

	// api
	app := api.NewApp(api.NewHandler(rag, ingest, docs), cfg.MaxUploadBytes)

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	log.Infof("server running on port %s (provider=%s, retrieval=%s)", cfg.Port, llm.Name(), cfg.Retrieval)
	if err := app.Listen(cfg.Addr()); err != nil {
		log.Fatal(err)
	}
}
