package retrieval

import (
	"context"
	"fmt"
	"strings"

	"ai-sitechat-be/internal/pkg/logger"
	"ai-sitechat-be/internal/repository/contract"
	"ai-sitechat-be/pkg/embedding"
)

// NoContextSentinel replaces the context block when retrieval finds nothing
// usable (or fails entirely).
const NoContextSentinel = "no relevant documents found"

// Config encapsulates search parameters
type Config struct {
	// TopK is how many candidates to pull from the store before filtering.
	TopK int
	// SimilarityFloor drops candidates at or below this score. The filter is
	// strict: a passage survives only with similarity strictly greater.
	SimilarityFloor float64
}

// DefaultConfig returns default search configuration
func DefaultConfig() Config {
	return Config{
		TopK:            5,
		SimilarityFloor: 0.7,
	}
}

// RetrievedPassage is one passage that survived filtering.
type RetrievedPassage struct {
	Content    string
	SourceURL  string
	Similarity float64
	Rank       int // 1-based position after filtering
}

// Result is the assembled retrieval outcome for one query.
type Result struct {
	Context  string
	Passages []RetrievedPassage
}

// Assembler embeds a query, searches the vector store and assembles the
// surviving passages into a bounded context string.
type Assembler struct {
	embeddingProvider embedding.EmbeddingProvider
	passages          contract.PassageEmbeddingRepository
	logger            logger.ILogger
	config            Config
}

func NewAssembler(
	embeddingProvider embedding.EmbeddingProvider,
	passages contract.PassageEmbeddingRepository,
	log logger.ILogger,
	config Config,
) *Assembler {
	def := DefaultConfig()
	if config.TopK <= 0 {
		config.TopK = def.TopK
	}
	if config.SimilarityFloor <= 0 {
		config.SimilarityFloor = def.SimilarityFloor
	}
	return &Assembler{
		embeddingProvider: embeddingProvider,
		passages:          passages,
		logger:            log,
		config:            config,
	}
}

// Assemble never fails: any embedding or search error degrades to an empty
// passage list plus the sentinel context, so the chat flow always proceeds
// and the model can still answer (or decline) on its own.
func (a *Assembler) Assemble(ctx context.Context, query string) Result {
	passages, err := a.retrieve(ctx, query)
	if err != nil {
		a.logger.Warn("retrieval", "retrieval degraded to empty context", map[string]interface{}{
			"error": err.Error(),
		})
		return Result{Context: NoContextSentinel}
	}

	a.logger.Info("retrieval", "retrieval finished", map[string]interface{}{
		"passages": len(passages),
	})

	if len(passages) == 0 {
		return Result{Context: NoContextSentinel}
	}

	contents := make([]string, len(passages))
	for i, p := range passages {
		contents[i] = p.Content
	}

	return Result{
		Context:  strings.Join(contents, "\n\n"),
		Passages: passages,
	}
}

func (a *Assembler) retrieve(ctx context.Context, query string) ([]RetrievedPassage, error) {
	embeddingRes, err := a.embeddingProvider.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	// DB threshold stays at 0; the strict floor is applied in logic below so
	// a score exactly at the floor is excluded.
	scored, err := a.passages.SearchSimilarWithScore(ctx, embeddingRes.Embedding.Values, a.config.TopK, 0)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	var passages []RetrievedPassage
	for _, res := range scored {
		if res.Similarity > a.config.SimilarityFloor {
			passages = append(passages, RetrievedPassage{
				Content:    res.Embedding.Document,
				SourceURL:  res.Embedding.SourceURL,
				Similarity: res.Similarity,
				Rank:       len(passages) + 1,
			})
		} else {
			a.logger.Debug("retrieval", "candidate below similarity floor", map[string]interface{}{
				"similarity": res.Similarity,
			})
		}
	}

	return passages, nil
}
