package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
)

// Judge is the external judgment collaborator: one prompt plus evidence
// images in, one text blob out. Implementations own their timeout; callers
// treat any error the same way.
type Judge interface {
	Judge(ctx context.Context, prompt string, images [][]byte) (string, error)
}

var ErrEmptyJudgment = errors.New("judgment service returned no content")

const (
	judgeMaxRetries     = 3
	judgeInitialBackoff = time.Second
)

// GeminiJudge runs compliance judgments against the Gemini API. A single
// counting semaphore caps in-flight calls across every session in the
// process; the upstream rate budget is shared, so the limit is process-wide
// rather than per-run. The semaphore wraps only the network call, not prompt
// construction.
type GeminiJudge struct {
	client    *genai.Client
	modelName string
	slots     chan struct{}
}

// NewGeminiJudge creates a judge with the given concurrency cap.
func NewGeminiJudge(client *genai.Client, modelName string, concurrency int) *GeminiJudge {
	if concurrency < 1 {
		concurrency = 1
	}
	return &GeminiJudge{
		client:    client,
		modelName: modelName,
		slots:     make(chan struct{}, concurrency),
	}
}

// Judge submits one batch prompt and returns the raw model response text.
// Transient failures are retried with exponential backoff; an exhausted
// retry budget surfaces as an error for the caller to record as a batch
// failure.
func (j *GeminiJudge) Judge(ctx context.Context, prompt string, images [][]byte) (string, error) {
	model := j.client.GenerativeModel(j.modelName)

	parts := make([]genai.Part, 0, len(images)+1)
	parts = append(parts, genai.Text(prompt))
	for _, img := range images {
		parts = append(parts, genai.ImageData("png", img))
	}

	var lastErr error
	backoff := judgeInitialBackoff
	for attempt := 0; attempt < judgeMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := j.generate(ctx, model, parts)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("judgment failed after %d attempts: %w", judgeMaxRetries, lastErr)
}

func (j *GeminiJudge) generate(ctx context.Context, model *genai.GenerativeModel, parts []genai.Part) (string, error) {
	select {
	case j.slots <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	resp, err := model.GenerateContent(ctx, parts...)
	<-j.slots

	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyJudgment
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyJudgment
	}
	return b.String(), nil
}
