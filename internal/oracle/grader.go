package oracle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/olehkravets/satzwerk/internal/models"
	"github.com/olehkravets/satzwerk/pkg/retry"
)

type conversationClient interface {
	Ask(ctx context.Context, assistantID, prompt string) (string, error)
}

type assistantResolver interface {
	Resolve(ctx context.Context, purpose models.AssistantPurpose) (string, error)
}

// Grader grades (original, translation) pairs through the external oracle.
// It never returns an error for grading failures: after the bounded retry
// budget is spent the caller receives the default zero-score evaluation.
type Grader struct {
	client   conversationClient
	resolver assistantResolver
	retryCfg retry.Config
	logger   *zap.Logger
}

// NewGrader builds a grader with a bounded retry budget.
func NewGrader(client conversationClient, resolver assistantResolver, maxAttempts int, backoff time.Duration, logger *zap.Logger) *Grader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Grader{
		client:   client,
		resolver: resolver,
		retryCfg: retry.Config{MaxAttempts: maxAttempts, Backoff: backoff},
		logger:   logger,
	}
}

// Grade submits the pair, parses the fixed-format report and applies the
// zero-score guard. Malformed reports count against the retry budget.
func (g *Grader) Grade(ctx context.Context, original, translation string) Evaluation {
	assistantID, err := g.resolver.Resolve(ctx, models.AssistantGrader)
	if err != nil {
		g.logger.Error("grading assistant unavailable", zap.Error(err))
		return DefaultEvaluation()
	}

	eval, err := retry.DoValue(ctx, g.retryCfg, DefaultEvaluation(), func(ctx context.Context, attempt int) (Evaluation, error) {
		raw, askErr := g.client.Ask(ctx, assistantID, gradePrompt(original, translation))
		if askErr != nil {
			g.logger.Warn("grading call failed", zap.Int("attempt", attempt), zap.Error(askErr))
			return Evaluation{}, askErr
		}
		parsed, parseErr := ParseReport(raw)
		if parseErr != nil {
			g.logger.Warn("malformed grading report", zap.Int("attempt", attempt), zap.Error(parseErr))
			return Evaluation{}, parseErr
		}
		return parsed, nil
	})
	if err != nil {
		g.logger.Error("grading exhausted retries, returning default score", zap.Error(err))
		return DefaultEvaluation()
	}

	// A hard zero on a submitted answer is suspicious; confirm it with one
	// narrow re-score call before accepting.
	if eval.Score == 0 && translation != "" {
		if rescored, ok := g.rescore(ctx, assistantID, original, translation); ok && rescored > 0 {
			g.logger.Info("re-score overrode zero", zap.Int("score", rescored))
			eval.Score = rescored
		}
	}
	return eval
}

func (g *Grader) rescore(ctx context.Context, assistantID, original, translation string) (int, bool) {
	raw, err := g.client.Ask(ctx, assistantID, rescorePrompt(original, translation))
	if err != nil {
		g.logger.Warn("re-score call failed", zap.Error(err))
		return 0, false
	}
	score, err := ParseScoreOnly(raw)
	if err != nil {
		g.logger.Warn("re-score reply unusable", zap.Error(err))
		return 0, false
	}
	return score, true
}
