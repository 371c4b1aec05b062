package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"traceloom/internal/dataset"
	"traceloom/internal/logging"
	"traceloom/internal/prompts"
	"traceloom/internal/questions"
	"traceloom/internal/services/llm"
	"traceloom/internal/sink"
	"traceloom/internal/textmetric"
)

// Completer is the slice of the model client the engine needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, imagePaths []string, opts ...llm.RequestOption) (string, error)
	CompleteText(ctx context.Context, prompt string, opts ...llm.RequestOption) (string, error)
}

// Options tunes one engine.
type Options struct {
	// MaxStrategies caps how many refinement strategies run per item (0..4).
	MaxStrategies int
	// MaxTokens bounds the initial multimodal call.
	MaxTokens int
	// RefinementMaxTokens bounds each strategy call.
	RefinementMaxTokens int
	// NaturalReasoningMaxTokens bounds the narrative synthesis call.
	NaturalReasoningMaxTokens int
	// FinalResponseMaxTokens bounds the final text-only call.
	FinalResponseMaxTokens int
	// Temperature applies to refinement strategy calls.
	Temperature float64
	// QuestionSeed seeds question generation for items without a question.
	QuestionSeed int64
}

// strategy names match the template suffixes in the prompt sets.
var strategyOrder = []struct {
	name     string
	template string
}{
	{"Backtracking", prompts.RethinkBacktracking},
	{"Exploring New Paths", prompts.RethinkExploring},
	{"Verification", prompts.RethinkVerification},
	{"Correction", prompts.RethinkCorrection},
}

// Engine turns one work item into a reasoning trace: an initial multimodal
// read, a sequence of refinement strategies, a natural-language synthesis of
// the accumulated reasoning, and a final response the conclusion is
// extracted from.
type Engine struct {
	client    Completer
	prompts   *prompts.Set
	generator *questions.Generator
	opts      Options
	logger    *slog.Logger
}

// New builds an engine over a model client and a domain prompt set.
func New(client Completer, set *prompts.Set, opts Options, logger *slog.Logger) *Engine {
	if opts.MaxStrategies < 0 {
		opts.MaxStrategies = 0
	}
	if opts.MaxStrategies > len(strategyOrder) {
		opts.MaxStrategies = len(strategyOrder)
	}
	return &Engine{
		client:    client,
		prompts:   set,
		generator: questions.NewGenerator(opts.QuestionSeed),
		opts:      opts,
		logger:    logging.WithComponent(logger, "pipeline"),
	}
}

// contentTypeFor maps a dataset domain onto the extraction patterns that fit
// its answers.
func contentTypeFor(domain string) ContentType {
	switch domain {
	case "radiology":
		return ContentMedical
	case "handwriting", "documents":
		return ContentOCR
	default:
		return ContentGeneral
	}
}

// Process runs the full reasoning trace for one item. Strategy failures are
// tolerated; failures of the initial call, the synthesis, or the final
// response fail the item.
func (e *Engine) Process(ctx context.Context, item dataset.Item) (sink.Record, error) {
	startedAt := time.Now()
	attemptID := uuid.NewString()
	logger := e.logger.With(
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldAttempt, attemptID),
	)

	question := strings.TrimSpace(item.Question)
	if question == "" {
		// Keyed by item identity so a resumed run asks the same question for
		// each item no matter how the workers interleave.
		generated, err := e.generator.Generate(item.ID, questions.DifficultyBasic)
		if err != nil {
			return sink.Record{}, fmt.Errorf("generate question: %w", err)
		}
		question = generated
	}

	var queryHistory, responseHistory []string

	initialPrompt, err := e.prompts.Named(prompts.QueryInit, map[string]string{"question": question})
	if err != nil {
		return sink.Record{}, fmt.Errorf("render initial prompt: %w", err)
	}
	queryHistory = append(queryHistory, initialPrompt)

	initial, err := e.client.Complete(ctx, initialPrompt, item.ImagePaths,
		llm.WithMaxTokens(e.opts.MaxTokens))
	if err != nil {
		return sink.Record{}, fmt.Errorf("initial call: %w", err)
	}
	responseHistory = append(responseHistory, initial)

	contentType := contentTypeFor(item.Domain)
	current := ExtractConclusion(initial, contentType)
	reasoningTrace := []string{initial}

	var strategiesUsed []string
	for _, s := range strategyOrder[:e.opts.MaxStrategies] {
		tmpl, ok := e.prompts.Get(s.template)
		if ok && strings.TrimSpace(tmpl) == "" {
			ok = false
		}
		if !ok {
			continue
		}
		prompt, err := e.prompts.Positional(s.template, question, current)
		if err != nil {
			logger.Warn("strategy prompt failed", logging.String("strategy", s.name), logging.Error(err))
			continue
		}
		queryHistory = append(queryHistory, prompt)

		response, err := e.client.Complete(ctx, prompt, item.ImagePaths,
			llm.WithMaxTokens(e.opts.RefinementMaxTokens),
			llm.WithTemperature(e.opts.Temperature))
		if err != nil {
			// A single failed strategy does not fail the item, but a dead
			// context means the remaining calls are doomed too.
			if ctx.Err() != nil {
				return sink.Record{}, fmt.Errorf("strategy %s: %w", s.name, ctx.Err())
			}
			logger.Warn("strategy failed", logging.String("strategy", s.name), logging.Error(err))
			continue
		}
		responseHistory = append(responseHistory, response)

		improved := ExtractConclusion(response, contentType)
		if improved != "" && improved != current {
			current = improved
			strategiesUsed = append(strategiesUsed, s.name)
			reasoningTrace = append(reasoningTrace, response)
		}
	}

	naturalPrompt, err := e.prompts.Named(prompts.NaturalReasoning, map[string]string{
		"question":        question,
		"reasoning_steps": strings.Join(reasoningTrace, "\n\n"),
	})
	if err != nil {
		return sink.Record{}, fmt.Errorf("render natural reasoning prompt: %w", err)
	}
	queryHistory = append(queryHistory, naturalPrompt)
	naturalReasoning, err := e.client.CompleteText(ctx, naturalPrompt,
		llm.WithMaxTokens(e.opts.NaturalReasoningMaxTokens))
	if err != nil {
		return sink.Record{}, fmt.Errorf("synthesize natural reasoning: %w", err)
	}
	responseHistory = append(responseHistory, naturalReasoning)

	finalPrompt, err := e.prompts.Positional(prompts.FinalResponse, naturalReasoning, question)
	if err != nil {
		return sink.Record{}, fmt.Errorf("render final response prompt: %w", err)
	}
	queryHistory = append(queryHistory, finalPrompt)
	finalResponse, err := e.client.CompleteText(ctx, finalPrompt,
		llm.WithMaxTokens(e.opts.FinalResponseMaxTokens))
	if err != nil {
		return sink.Record{}, fmt.Errorf("final response: %w", err)
	}
	responseHistory = append(responseHistory, finalResponse)

	extracted := ExtractConclusion(finalResponse, contentType)

	record := sink.Record{
		ItemID:          item.ID,
		AttemptID:       attemptID,
		Domain:          item.Domain,
		Status:          sink.StatusSuccess,
		Question:        question,
		GroundTruth:     item.GroundTruth,
		Reasoning:       naturalReasoning,
		Response:        finalResponse,
		ExtractedAnswer: extracted,
		QueryHistory:    queryHistory,
		ResponseHistory: responseHistory,
		StrategiesUsed:  strategiesUsed,
		StartedAt:       startedAt,
		FinishedAt:      time.Now(),
	}
	if len(item.ImagePaths) > 0 {
		record.SourcePath = item.ImagePaths[0]
	}
	if item.GroundTruth != "" && contentType == ContentOCR {
		report := textmetric.Evaluate(extracted, item.GroundTruth)
		record.Metrics = &sink.Metrics{
			CharErrorRate: report.CharErrorRate,
			WordErrorRate: report.WordErrorRate,
		}
	}

	logger.Info("trace complete",
		logging.Int("strategies", len(strategiesUsed)),
		logging.Duration("elapsed", record.FinishedAt.Sub(startedAt)),
	)
	return record, nil
}
