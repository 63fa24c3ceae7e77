package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/docvision/docvision-api/internal/models"
	"github.com/docvision/docvision-api/internal/utils"
)

// Analyzer performs the single synchronous call to the vision provider.
// One attempt per request; retries and backoff are explicitly out of
// scope.
type Analyzer interface {
	Analyze(ctx context.Context, req *models.VisionRequest) (string, error)
	Model() string
}

type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type visionAnalyzer struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	logger    *utils.Logger
}

func NewVisionAnalyzer(opts Options, logger *utils.Logger) Analyzer {
	clientConfig := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = opts.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &visionAnalyzer{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
		logger:    logger,
	}
}

func (a *visionAnalyzer) Model() string {
	return a.model
}

// Analyze sends one multimodal chat completion and returns the model's
// text verbatim. No post-processing: whatever structure the model emits
// stays in the string.
func (a *visionAnalyzer) Analyze(ctx context.Context, req *models.VisionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	message := openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: buildParts(req),
	}

	a.logger.Debug("calling vision API",
		"model", a.model,
		"parts", len(message.MultiContent))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		Messages:  []openai.ChatCompletionMessage{message},
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return "", mapProviderError(err)
	}

	if len(resp.Choices) == 0 {
		return "", utils.NewProviderRejectedError("vision provider returned no choices", nil)
	}

	a.logger.Debug("vision API response",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}

// buildParts converts the content blocks to chat message parts, keeping
// block order and appending the instruction last.
func buildParts(req *models.VisionRequest) []openai.ChatMessagePart {
	parts := make([]openai.ChatMessagePart, 0, len(req.Blocks)+1)

	for _, block := range req.Blocks {
		switch block.Type {
		case models.BlockImage:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", block.MimeType, block.Base64Data),
				},
			})
		case models.BlockText:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: fmt.Sprintf("[Document text from %s]:\n%s", block.Source, block.Text),
			})
		}
	}

	return append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: req.Instruction,
	})
}

// mapProviderError distinguishes a provider that answered with an error
// (rejected: bad key, rate limit, oversized payload) from one that could
// not be reached at all (unavailable: network error or timeout).
func mapProviderError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return utils.NewProviderRejectedError(
			fmt.Sprintf("vision provider rejected the request (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message), err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return utils.NewProviderRejectedError(
			fmt.Sprintf("vision provider rejected the request (status %d)", reqErr.HTTPStatusCode), err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return utils.NewProviderUnavailableError("vision provider request timed out", err)
	}

	return utils.NewProviderUnavailableError(
		fmt.Sprintf("vision provider is unreachable: %v", err), err)
}
