package genai

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/AspiringPianist/geni-backend/internal/models"
)

// Evaluation is the generative model's free-text verdict on a whole
// submission. Awarded/Max come from the strict "X/Y" mark line.
type Evaluation struct {
	Feedback string
	Awarded  float64
	Max      float64
}

// Evaluator is the optional secondary scoring path: a generative model
// reads the full assignment context plus the submission and returns
// prose feedback and an overall mark.
type Evaluator interface {
	Evaluate(ctx context.Context, questions []models.ReferenceQuestion, submissionText string) (*Evaluation, error)
	ModelInfo() string
}

type OpenAIEvaluator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIEvaluator(model string, timeout time.Duration) (*OpenAIEvaluator, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	return &OpenAIEvaluator{
		client:  openai.NewClient(key),
		model:   model,
		timeout: timeout,
	}, nil
}

func (e *OpenAIEvaluator) Evaluate(ctx context.Context, questions []models.ReferenceQuestion, submissionText string) (*Evaluation, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert educator evaluating a student's submission against an assignment's questions and reference answers.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(questions, submissionText),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("evaluation request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("evaluation returned no choices")
	}

	return parseEvaluation(resp.Choices[0].Message.Content)
}

func (e *OpenAIEvaluator) ModelInfo() string {
	return "openai-" + e.model
}

func buildPrompt(questions []models.ReferenceQuestion, submissionText string) string {
	var b strings.Builder

	totalMarks := 0
	b.WriteString("Assignment questions and reference answers:\n")
	for _, q := range questions {
		totalMarks += q.MaxMarks
		fmt.Fprintf(&b, "Question %d (%d marks): %s\n", q.Position, q.MaxMarks, q.QuestionText)
		fmt.Fprintf(&b, "Reference answer: %s\n", q.ReferenceAnswer)
		if q.MarkingScheme != nil {
			fmt.Fprintf(&b, "Marking scheme: %s\n", *q.MarkingScheme)
		}
	}

	b.WriteString("\nStudent submission:\n")
	b.WriteString(submissionText)

	fmt.Fprintf(&b, "\n\nEvaluate the submission and reply in exactly this format:\n")
	b.WriteString("Feedback: <detailed feedback for the submission>\n")
	fmt.Fprintf(&b, "Total Marks: <awarded>/%d\n", totalMarks)

	return b.String()
}

// parseEvaluation extracts the Feedback and Total Marks lines from the
// model output. The mark must be "X/Y"; anything else is ErrMarkParse.
func parseEvaluation(text string) (*Evaluation, error) {
	var feedback, mark string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Feedback:"):
			feedback = strings.TrimSpace(strings.TrimPrefix(line, "Feedback:"))
		case strings.HasPrefix(line, "Total Marks:"):
			mark = strings.TrimSpace(strings.TrimPrefix(line, "Total Marks:"))
			mark = strings.TrimSuffix(strings.TrimPrefix(mark, "["), "]")
		}
	}

	if mark == "" {
		return nil, fmt.Errorf("%w: missing Total Marks line", ErrMarkParse)
	}

	awarded, max, err := ParseMark(mark)
	if err != nil {
		return nil, err
	}

	return &Evaluation{
		Feedback: feedback,
		Awarded:  awarded,
		Max:      max,
	}, nil
}
