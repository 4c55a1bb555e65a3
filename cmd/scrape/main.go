package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/bgatm/replay-engine/internal/config"
	"github.com/bgatm/replay-engine/internal/fetch"
	"github.com/bgatm/replay-engine/internal/logger"
	"github.com/bgatm/replay-engine/internal/queue"
	"github.com/bgatm/replay-engine/internal/storage"
	pkgqueue "github.com/bgatm/replay-engine/pkg/queue"
)

func main() {
	_ = godotenv.Load()

	player := flag.String("player", "", "crawl this player's finished games")
	tables := flag.String("tables", "", "comma-separated table ids to fetch directly")
	pages := flag.Int("pages", 1, "history pages to crawl per player")
	version := flag.String("version", "", "archive version for replay URLs")
	enqueue := flag.Bool("enqueue", true, "queue a parse job for each fetched table")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg)

	if *player == "" && *tables == "" {
		log.Error("Nothing to do: pass -player or -tables")
		os.Exit(1)
	}
	if *player != "" && cfg.BGAEmail == "" {
		log.Error("BGA_EMAIL and BGA_PASSWORD are required for crawling")
		os.Exit(1)
	}

	ctx := context.Background()

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(ctx, 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	registry, err := storage.OpenRegistry(cfg.RegistryPath)
	if err != nil {
		log.Error("Failed to open games registry", "error", err)
		os.Exit(1)
	}
	defer registry.Close()

	var jobQueue *queue.JobQueue
	if *enqueue {
		queueClient, err := queue.NewClient(cfg.RedisURL, log)
		if err != nil {
			log.Error("Failed to create queue client", "error", err)
			os.Exit(1)
		}
		defer queueClient.Close()
		jobQueue = queue.NewJobQueue(queueClient)
	}

	session, err := fetch.NewSession(cfg.RequestDelay, log)
	if err != nil {
		log.Error("Failed to create session", "error", err)
		os.Exit(1)
	}
	if err := session.Login(ctx, cfg.BGAEmail, cfg.BGAPassword); err != nil {
		log.Error("Login failed", "error", err)
		os.Exit(1)
	}

	var tableIDs []string
	if *tables != "" {
		for _, id := range strings.Split(*tables, ",") {
			if id = strings.TrimSpace(id); id != "" {
				tableIDs = append(tableIDs, id)
			}
		}
	}

	if *player != "" {
		frontier := fetch.NewFrontier(100000)
		for page := 1; page <= *pages; page++ {
			history, err := session.FetchGameHistory(ctx, *player, page)
			if err != nil {
				log.Error("Failed to fetch game history", "error", err, "page", page)
				break
			}
			found := fetch.ExtractTableIDs(history, frontier)
			if len(found) == 0 {
				log.Info("No new tables on page, stopping crawl", "page", page)
				break
			}
			tableIDs = append(tableIDs, found...)
		}
	}

	perspective := *player
	if perspective == "" {
		perspective = "0"
	}

	fetched := 0
	for _, tableID := range tableIDs {
		done, err := registry.IsScraped(ctx, tableID, perspective)
		if err != nil {
			log.Error("Registry lookup failed", "error", err, "table_id", tableID)
			continue
		}
		if done {
			log.Debug("Table already scraped, skipping", "table_id", tableID)
			continue
		}

		raw, err := session.FetchReplay(ctx, *version, tableID, perspective)
		if err != nil {
			log.Error("Failed to fetch replay", "error", err, "table_id", tableID)
			continue
		}
		if err := store.SaveRawDocument(ctx, tableID, perspective, raw); err != nil {
			log.Error("Failed to store raw document", "error", err, "table_id", tableID)
			continue
		}

		if tablePage, err := session.FetchTable(ctx, tableID); err != nil {
			log.Warn("Failed to fetch table page, continuing without ELO data",
				"error", err, "table_id", tableID)
		} else if err := store.SaveTablePage(ctx, tableID, perspective, tablePage); err != nil {
			log.Warn("Failed to store table page", "error", err, "table_id", tableID)
		}

		if err := registry.MarkScraped(ctx, storage.GameRecord{
			TableID:     tableID,
			Perspective: perspective,
			Version:     *version,
		}); err != nil {
			log.Error("Failed to mark table scraped", "error", err, "table_id", tableID)
			continue
		}
		fetched++

		if jobQueue != nil {
			job := pkgqueue.NewParseJob(tableID, perspective)
			if err := jobQueue.Enqueue(ctx, job); err != nil {
				log.Error("Failed to enqueue parse job", "error", err, "table_id", tableID)
			}
		}
	}

	log.Info("Scrape finished", "tables_seen", len(tableIDs), "fetched", fetched)
}
