package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-sitechat-be/internal/entity"
	"ai-sitechat-be/internal/pkg/logger"
	"ai-sitechat-be/internal/repository/unitofwork"
	"ai-sitechat-be/pkg/embedding"
	"ai-sitechat-be/pkg/scraper"
	"ai-sitechat-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

type IIngestConsumerService interface {
	Consume(ctx context.Context) error
}

// ConsumerOption configures optional consumer behavior.
type ConsumerOption func(*ingestConsumerService)

// WithProcessedHook registers a callback invoked after every processed
// message, successful or not. Batch runners use it to detect completion.
func WithProcessedHook(hook func(url string, err error)) ConsumerOption {
	return func(cs *ingestConsumerService) {
		cs.processedHook = hook
	}
}

type ingestConsumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	scraper           *scraper.Scraper
	logger            logger.ILogger
	chunkSize         int
	chunkOverlap      int

	// seenUrls memoizes recent existence checks so a burst of duplicate urls
	// does not hammer the database.
	seenUrls      *gocache.Cache
	processedHook func(url string, err error)
}

func NewIngestConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	pageScraper *scraper.Scraper,
	log logger.ILogger,
	chunkSize int,
	chunkOverlap int,
	opts ...ConsumerOption,
) IIngestConsumerService {
	cs := &ingestConsumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		scraper:           pageScraper,
		logger:            log,
		chunkSize:         chunkSize,
		chunkOverlap:      chunkOverlap,
		seenUrls:          gocache.New(10*time.Minute, 15*time.Minute),
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

func (cs *ingestConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *ingestConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload IngestPageMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ingest", "failed to unmarshal ingest message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed messages are never retriable
		return
	}

	err := cs.indexPage(ctx, payload)
	if err != nil {
		cs.logger.Error("ingest", "page indexing failed", map[string]interface{}{
			"url":   payload.URL,
			"error": err.Error(),
		})
		msg.Nack()
	} else {
		msg.Ack()
	}

	if cs.processedHook != nil {
		cs.processedHook(payload.URL, err)
	}
}

func (cs *ingestConsumerService) indexPage(ctx context.Context, payload IngestPageMessage) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if !payload.Force {
		exists, err := cs.alreadyIndexed(ctx, uow, payload.URL)
		if err != nil {
			return err
		}
		if exists {
			cs.logger.Info("ingest", "url already indexed, skipping", map[string]interface{}{
				"url": payload.URL,
			})
			return nil
		}
	}

	page, err := cs.scraper.Fetch(ctx, payload.URL)
	if err != nil {
		return err
	}

	content := page.Text
	if page.Title != "" {
		content = page.Title + "\n\n" + content
	}

	chunks := utils.SplitText(content, cs.chunkSize, cs.chunkOverlap)
	cs.logger.Info("ingest", "page split into chunks", map[string]interface{}{
		"url":    payload.URL,
		"chunks": len(chunks),
	})

	newEmbeddings := make([]*entity.PassageEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			return err
		}

		newEmbeddings = append(newEmbeddings, &entity.PassageEmbedding{
			Id:             uuid.New(),
			Document:       chunk,
			EmbeddingValue: res.Embedding.Values,
			SourceURL:      payload.URL,
			ChunkIndex:     i,
			CreatedAt:      time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.PassageEmbeddingRepository().DeleteBySourceURL(ctx, payload.URL); err != nil {
		return err
	}
	if len(newEmbeddings) > 0 {
		if err := uow.PassageEmbeddingRepository().CreateBulk(ctx, newEmbeddings); err != nil {
			return err
		}
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	cs.seenUrls.Set(payload.URL, true, gocache.DefaultExpiration)
	cs.logger.Info("ingest", "page indexed", map[string]interface{}{
		"url":    payload.URL,
		"chunks": len(newEmbeddings),
	})
	return nil
}

func (cs *ingestConsumerService) alreadyIndexed(ctx context.Context, uow unitofwork.UnitOfWork, url string) (bool, error) {
	if _, found := cs.seenUrls.Get(url); found {
		return true, nil
	}

	exists, err := uow.PassageEmbeddingRepository().ExistsBySourceURL(ctx, url)
	if err != nil {
		return false, err
	}
	if exists {
		cs.seenUrls.Set(url, true, gocache.DefaultExpiration)
	}
	return exists, nil
}
