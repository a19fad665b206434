package bootstrap

import (
	"log"

	"ai-sitechat-be/internal/config"
	"ai-sitechat-be/internal/controller"
	"ai-sitechat-be/internal/pkg/logger"
	"ai-sitechat-be/internal/repository/implementation"
	"ai-sitechat-be/internal/repository/unitofwork"
	"ai-sitechat-be/internal/service"
	"ai-sitechat-be/pkg/embedding"
	"ai-sitechat-be/pkg/llm/factory"
	"ai-sitechat-be/pkg/retrieval"
	"ai-sitechat-be/pkg/scraper"
	"ai-sitechat-be/pkg/stream"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController   controller.IChatController
	IngestController controller.IIngestController
	HealthController controller.IHealthController

	// Background services, exposed for main.go to run
	ConsumerService service.IIngestConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	embeddingProvider := NewEmbeddingProvider(cfg)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Retrieval pipeline
	passageRepo := implementation.NewPassageEmbeddingRepository(db)
	assembler := retrieval.NewAssembler(
		embeddingProvider,
		passageRepo,
		sysLogger,
		retrieval.DefaultConfig(),
	)
	encoder := stream.NewEncoder(llmProvider, sysLogger)

	// 5. Services
	chatService := service.NewChatService(assembler, encoder, sysLogger, cfg.Ai.LLMModel)
	publisherService := service.NewIngestPublisherService(pubSub, cfg.Ingest.Topic, sysLogger)
	consumerService := service.NewIngestConsumerService(
		pubSub,
		cfg.Ingest.Topic,
		uowFactory,
		embeddingProvider,
		scraper.New(),
		sysLogger,
		cfg.Ingest.ChunkSize,
		cfg.Ingest.ChunkOverlap,
	)

	return &Container{
		ChatController:   controller.NewChatController(chatService),
		IngestController: controller.NewIngestController(publisherService),
		HealthController: controller.NewHealthController(passageRepo),

		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}

// NewEmbeddingProvider picks the embedding backend from config.
func NewEmbeddingProvider(cfg *config.Config) embedding.EmbeddingProvider {
	if cfg.Ai.EmbeddingProvider == "gemini" {
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
		return embedding.NewGeminiProvider(cfg.Ai.GeminiApiKey, cfg.Ai.EmbeddingDimensions)
	}
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbeddingModel)
	return embedding.NewOllamaProvider(
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OllamaEmbeddingModel,
		cfg.Ai.EmbeddingDimensions,
	)
}
