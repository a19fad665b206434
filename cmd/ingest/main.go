package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"sync"

	"ai-sitechat-be/internal/bootstrap"
	"ai-sitechat-be/internal/config"
	"ai-sitechat-be/internal/pkg/logger"
	"ai-sitechat-be/internal/repository/unitofwork"
	"ai-sitechat-be/internal/service"
	"ai-sitechat-be/pkg/database"
	"ai-sitechat-be/pkg/scraper"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Offline batch indexer. Wires the same publisher and consumer the server
// runs, but in one process that exits when every url has been handled.
//
//	go run ./cmd/ingest -urls https://a.example,https://b.example
//	go run ./cmd/ingest -file urls.txt -force
func main() {
	urlsFlag := flag.String("urls", "", "comma separated list of urls to index")
	fileFlag := flag.String("file", "", "file with one url per line")
	forceFlag := flag.Bool("force", false, "re-index urls that already have embeddings")
	flag.Parse()

	urls := collectUrls(*urlsFlag, *fileFlag)
	if len(urls) == 0 {
		log.Fatal("Error: no urls given, use -urls or -file")
	}

	cfg := config.MustLoad()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Error: Failed to connect to database: %v", err)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	embeddingProvider := bootstrap.NewEmbeddingProvider(cfg)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))

	var wg sync.WaitGroup
	wg.Add(len(urls))
	var failed int
	var mu sync.Mutex
	// Nacked messages are redelivered by the in-memory bus, so the hook can
	// fire more than once per url. Count each url once.
	settled := make(map[string]bool)

	consumer := service.NewIngestConsumerService(
		pubSub,
		cfg.Ingest.Topic,
		uowFactory,
		embeddingProvider,
		scraper.New(),
		sysLogger,
		cfg.Ingest.ChunkSize,
		cfg.Ingest.ChunkOverlap,
		service.WithProcessedHook(func(url string, err error) {
			mu.Lock()
			defer mu.Unlock()
			if settled[url] {
				return
			}
			settled[url] = true
			if err != nil {
				failed++
				log.Printf("✗ %s: %v", url, err)
			} else {
				log.Printf("✓ %s", url)
			}
			wg.Done()
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := consumer.Consume(ctx); err != nil {
		log.Fatalf("Error: Failed to start consumer: %v", err)
	}

	publisher := service.NewIngestPublisherService(pubSub, cfg.Ingest.Topic, sysLogger)
	if _, err := publisher.PublishUrls(urls, *forceFlag); err != nil {
		log.Fatalf("Error: Failed to publish urls: %v", err)
	}

	wg.Wait()

	if failed > 0 {
		log.Printf("Done with errors: %d/%d urls failed", failed, len(urls))
		os.Exit(1)
	}
	log.Printf("✅ Success: %d urls indexed", len(urls))
}

func collectUrls(urlsFlag, fileFlag string) []string {
	var urls []string
	for _, u := range strings.Split(urlsFlag, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if fileFlag != "" {
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			log.Fatalf("Error: Failed to read url file: %v", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
				urls = append(urls, line)
			}
		}
	}
	return urls
}
