package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/olehkravets/satzwerk/internal/models"
	"github.com/olehkravets/satzwerk/pkg/retry"
)

// Generator requests fresh practice sentences from the generation oracle.
type Generator struct {
	client   conversationClient
	resolver assistantResolver
	retryCfg retry.Config
	logger   *zap.Logger
}

// NewGenerator builds a generator with a bounded retry budget.
func NewGenerator(client conversationClient, resolver assistantResolver, maxAttempts int, backoff time.Duration, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Generator{
		client:   client,
		resolver: resolver,
		retryCfg: retry.Config{MaxAttempts: maxAttempts, Backoff: backoff},
		logger:   logger,
	}
}

// Generate returns up to count candidate sentences for a topic, one per
// line, without any quality filtering beyond dropping empty lines. The set
// builder owns dedup and numbering cleanup.
func (g *Generator) Generate(ctx context.Context, count int, topic string) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	assistantID, err := g.resolver.Resolve(ctx, models.AssistantGenerator)
	if err != nil {
		return nil, fmt.Errorf("generation assistant unavailable: %w", err)
	}

	return retry.DoValue(ctx, g.retryCfg, nil, func(ctx context.Context, attempt int) ([]string, error) {
		raw, askErr := g.client.Ask(ctx, assistantID, generatePrompt(count, topic))
		if askErr != nil {
			g.logger.Warn("generation call failed", zap.Int("attempt", attempt), zap.Error(askErr))
			return nil, askErr
		}
		lines := splitCandidates(raw)
		if len(lines) == 0 {
			return nil, fmt.Errorf("generator returned no sentences")
		}
		return lines, nil
	})
}

func splitCandidates(raw string) []string {
	parts := strings.Split(raw, "\n")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
