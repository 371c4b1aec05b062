package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"traceloom/internal/dataset"
	"traceloom/internal/logging"
	"traceloom/internal/pipeline"
	"traceloom/internal/prompts"
	"traceloom/internal/services/llm"
	"traceloom/internal/sink"
)

// scriptedClient answers multimodal and text calls from canned responses and
// records every prompt it saw.
type scriptedClient struct {
	multimodal     []response
	text           []response
	seenMultimodal []string
	seenText       []string
	seenImages     [][]string
}

type response struct {
	content string
	err     error
}

func (c *scriptedClient) Complete(ctx context.Context, prompt string, imagePaths []string, opts ...llm.RequestOption) (string, error) {
	c.seenMultimodal = append(c.seenMultimodal, prompt)
	c.seenImages = append(c.seenImages, imagePaths)
	if len(c.multimodal) == 0 {
		return "", errors.New("no scripted multimodal response")
	}
	next := c.multimodal[0]
	c.multimodal = c.multimodal[1:]
	return next.content, next.err
}

func (c *scriptedClient) CompleteText(ctx context.Context, prompt string, opts ...llm.RequestOption) (string, error) {
	c.seenText = append(c.seenText, prompt)
	if len(c.text) == 0 {
		return "", errors.New("no scripted text response")
	}
	next := c.text[0]
	c.text = c.text[1:]
	return next.content, next.err
}

func newEngine(t *testing.T, client *scriptedClient, opts pipeline.Options) *pipeline.Engine {
	t.Helper()
	set, err := prompts.Default("handwriting")
	if err != nil {
		t.Fatalf("load prompts: %v", err)
	}
	return pipeline.New(client, set, opts, logging.NewNop())
}

func conclusion(text string) string {
	return "**Final Conclusion**: " + text + "\n\n**Verification**\nChecked."
}

func TestProcessFullTrace(t *testing.T) {
	client := &scriptedClient{
		multimodal: []response{
			{content: conclusion("A MOVE to stap Mr. Gaitskell")},
			{content: conclusion("A MOVE to stop Mr. Gaitskell")},
		},
		text: []response{
			{content: "I read the page and corrected stap to stop."},
			{content: conclusion("A MOVE to stop Mr. Gaitskell")},
		},
	}
	engine := newEngine(t, client, pipeline.Options{MaxStrategies: 1, MaxTokens: 1000, Temperature: 0.7})

	item := dataset.Item{
		ID:          "a01-000u",
		Domain:      "handwriting",
		ImagePaths:  []string{"/img/a01-000u.png"},
		GroundTruth: "A MOVE to stop Mr. Gaitskell",
	}
	record, err := engine.Process(context.Background(), item)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !record.IsSuccess() {
		t.Fatalf("expected success record: %+v", record)
	}
	if record.AttemptID == "" {
		t.Fatal("expected attempt id")
	}
	if record.ExtractedAnswer != "A MOVE to stop Mr. Gaitskell" {
		t.Fatalf("unexpected extracted answer: %q", record.ExtractedAnswer)
	}
	if len(record.StrategiesUsed) != 1 || record.StrategiesUsed[0] != "Backtracking" {
		t.Fatalf("unexpected strategies: %v", record.StrategiesUsed)
	}
	if record.Reasoning != "I read the page and corrected stap to stop." {
		t.Fatalf("unexpected reasoning: %q", record.Reasoning)
	}
	if record.SourcePath != "/img/a01-000u.png" {
		t.Fatalf("unexpected source path: %q", record.SourcePath)
	}
	// Initial call + 1 strategy, both with the item's image.
	if len(client.seenMultimodal) != 2 || len(client.seenImages[1]) != 1 {
		t.Fatalf("unexpected multimodal calls: %d", len(client.seenMultimodal))
	}
	// Natural reasoning + final response.
	if len(client.seenText) != 2 {
		t.Fatalf("unexpected text calls: %d", len(client.seenText))
	}
	if len(record.QueryHistory) != 4 || len(record.ResponseHistory) != 4 {
		t.Fatalf("unexpected history sizes: %d queries, %d responses",
			len(record.QueryHistory), len(record.ResponseHistory))
	}
	if record.Metrics == nil || record.Metrics.CharErrorRate != 0 {
		t.Fatalf("expected perfect metrics against ground truth: %+v", record.Metrics)
	}
	if record.StartedAt.IsZero() || record.FinishedAt.Before(record.StartedAt) {
		t.Fatalf("unexpected timestamps: %+v", record)
	}
}

func TestProcessStrategyFailureTolerated(t *testing.T) {
	client := &scriptedClient{
		multimodal: []response{
			{content: conclusion("the quick brown fox reading")},
			{err: errors.New("rate limited")},
		},
		text: []response{
			{content: "narrative reasoning"},
			{content: conclusion("the quick brown fox reading")},
		},
	}
	engine := newEngine(t, client, pipeline.Options{MaxStrategies: 1})

	record, err := engine.Process(context.Background(), dataset.Item{ID: "x", Domain: "handwriting"})
	if err != nil {
		t.Fatalf("strategy failure must not fail the item: %v", err)
	}
	if len(record.StrategiesUsed) != 0 {
		t.Fatalf("failed strategy must not be counted: %v", record.StrategiesUsed)
	}
}

func TestProcessInitialFailureFailsItem(t *testing.T) {
	client := &scriptedClient{
		multimodal: []response{{err: errors.New("model offline")}},
	}
	engine := newEngine(t, client, pipeline.Options{})
	if _, err := engine.Process(context.Background(), dataset.Item{ID: "x", Domain: "handwriting"}); err == nil {
		t.Fatal("expected error when the initial call fails")
	}
}

func TestProcessUsesProvidedQuestion(t *testing.T) {
	client := &scriptedClient{
		multimodal: []response{{content: conclusion("the answer is $42.00 total")}},
		text: []response{
			{content: "narrative"},
			{content: conclusion("the answer is $42.00 total")},
		},
	}
	engine := newEngine(t, client, pipeline.Options{})

	record, err := engine.Process(context.Background(), dataset.Item{
		ID:       "p1",
		Domain:   "documents",
		Question: "What is the invoice total?",
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if record.Question != "What is the invoice total?" {
		t.Fatalf("unexpected question: %q", record.Question)
	}
	if !strings.Contains(client.seenMultimodal[0], "What is the invoice total?") {
		t.Fatalf("initial prompt missing question: %q", client.seenMultimodal[0])
	}
}

func TestProcessGeneratesQuestionWhenAbsent(t *testing.T) {
	client := &scriptedClient{
		multimodal: []response{{content: conclusion("generated question answer text")}},
		text: []response{
			{content: "narrative"},
			{content: conclusion("generated question answer text")},
		},
	}
	engine := newEngine(t, client, pipeline.Options{QuestionSeed: 42})

	record, err := engine.Process(context.Background(), dataset.Item{ID: "h1", Domain: "handwriting"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if record.Question == "" {
		t.Fatal("expected a generated question")
	}
}

// steadyClient answers every call with the same content; unlike scriptedClient
// it keeps no state, so it is safe under concurrent Process calls.
type steadyClient struct {
	content string
}

func (c steadyClient) Complete(ctx context.Context, prompt string, imagePaths []string, opts ...llm.RequestOption) (string, error) {
	return c.content, nil
}

func (c steadyClient) CompleteText(ctx context.Context, prompt string, opts ...llm.RequestOption) (string, error) {
	return c.content, nil
}

func TestProcessConcurrentQuestionGeneration(t *testing.T) {
	set, err := prompts.Default("handwriting")
	if err != nil {
		t.Fatalf("load prompts: %v", err)
	}
	client := steadyClient{content: conclusion("steady transcription output")}
	opts := pipeline.Options{QuestionSeed: 42}
	engine := pipeline.New(client, set, opts, logging.NewNop())

	// One engine shared by many workers, all processing question-less items,
	// is exactly how the dispatcher drives it.
	const items = 12
	records := make([]sink.Record, items)
	var wg sync.WaitGroup
	errs := make(chan error, items)
	for i := 0; i < items; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record, err := engine.Process(context.Background(), dataset.Item{
				ID:     fmt.Sprintf("h%02d", i),
				Domain: "handwriting",
			})
			if err != nil {
				errs <- err
				return
			}
			records[i] = record
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Process failed: %v", err)
	}

	// A fresh engine with the same seed, run sequentially, must ask the same
	// question per item: generation depends on seed and item identity only.
	fresh := pipeline.New(client, set, opts, logging.NewNop())
	for i := 0; i < items; i++ {
		record, err := fresh.Process(context.Background(), dataset.Item{
			ID:     fmt.Sprintf("h%02d", i),
			Domain: "handwriting",
		})
		if err != nil {
			t.Fatalf("sequential Process failed: %v", err)
		}
		if records[i].Question == "" {
			t.Fatalf("item %d got no generated question", i)
		}
		if records[i].Question != record.Question {
			t.Fatalf("item %d question depends on scheduling: %q vs %q",
				i, records[i].Question, record.Question)
		}
	}
}

func TestProcessNoMetricsWithoutGroundTruth(t *testing.T) {
	client := &scriptedClient{
		multimodal: []response{{content: conclusion("clear lungs without consolidation")}},
		text: []response{
			{content: "narrative"},
			{content: conclusion("clear lungs without consolidation")},
		},
	}
	engine := newEngine(t, client, pipeline.Options{})

	record, err := engine.Process(context.Background(), dataset.Item{ID: "c1", Domain: "radiology", Question: "Findings?"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if record.Metrics != nil {
		t.Fatalf("radiology items must not carry OCR metrics: %+v", record.Metrics)
	}
}
