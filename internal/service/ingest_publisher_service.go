package service

import (
	"encoding/json"
	"fmt"

	"ai-sitechat-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IngestPageMessage is the payload published for every page to index.
type IngestPageMessage struct {
	URL string `json:"url"`
	// Force re-indexes the page even when embeddings for it already exist.
	Force bool `json:"force,omitempty"`
}

type IIngestPublisherService interface {
	// PublishUrls enqueues one ingest message per url and returns how many
	// were accepted.
	PublishUrls(urls []string, force bool) (int, error)
}

type ingestPublisherService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	logger    logger.ILogger
}

func NewIngestPublisherService(
	pubSub *gochannel.GoChannel,
	topicName string,
	log logger.ILogger,
) IIngestPublisherService {
	return &ingestPublisherService{
		pubSub:    pubSub,
		topicName: topicName,
		logger:    log,
	}
}

func (s *ingestPublisherService) PublishUrls(urls []string, force bool) (int, error) {
	queued := 0
	for _, url := range urls {
		payload, err := json.Marshal(IngestPageMessage{URL: url, Force: force})
		if err != nil {
			return queued, fmt.Errorf("marshal ingest message: %w", err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		if err := s.pubSub.Publish(s.topicName, msg); err != nil {
			return queued, fmt.Errorf("publish ingest message for %s: %w", url, err)
		}
		queued++
	}

	s.logger.Info("ingest", "urls queued for indexing", map[string]interface{}{
		"count": queued,
	})
	return queued, nil
}
