package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voxbridge-ai/voxbridge/pkg/relay"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/protocol"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/tools/adapters/search"
)

const ToolSearchQnA = "perform_search_based_qna"

// qnaMaxDocuments caps how many search hits are folded into one answer
// context.
const qnaMaxDocuments = 2

// documentBoundary separates aggregated documents in the answer context.
const documentBoundary = "\n\n---\n\n"

// SearchQnAExecutor answers questions by aggregating the top semantic search
// hits into a single grounding text.
type SearchQnAExecutor struct {
	index  *search.Client
	logger *slog.Logger
}

// NewSearchQnAExecutor builds the executor around a search index client.
func NewSearchQnAExecutor(index *search.Client, logger *slog.Logger) *SearchQnAExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchQnAExecutor{index: index, logger: logger}
}

func (e *SearchQnAExecutor) Name() string { return ToolSearchQnA }

func (e *SearchQnAExecutor) Definition() protocol.ToolSchema {
	return protocol.ToolSchema{
		Type:        "function",
		Name:        ToolSearchQnA,
		Description: "Answer a question using the indexed knowledge base.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "The user's question"}
			},
			"required": ["query"]
		}`),
	}
}

// Execute queries the index and concatenates up to two well-formed documents,
// skipping malformed entries rather than failing the call.
func (e *SearchQnAExecutor) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}
	if e.index == nil || !e.index.Configured() {
		return "", relay.NewNotFoundError("search index is not configured")
	}

	docs, err := e.index.Query(ctx, query, qnaMaxDocuments+1)
	if err != nil {
		return "", fmt.Errorf("search query: %w", err)
	}

	var sections []string
	for _, doc := range docs {
		if len(sections) >= qnaMaxDocuments {
			break
		}
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			e.logger.Debug("skipping search hit without content", "title", doc.Title)
			continue
		}
		if title := strings.TrimSpace(doc.Title); title != "" {
			content = title + "\n" + content
		}
		sections = append(sections, content)
	}
	if len(sections) == 0 {
		return "No relevant documents were found.", nil
	}
	return strings.Join(sections, documentBoundary), nil
}
