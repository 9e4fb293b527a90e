package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/geo-chat/backend/internal/config"
	"github.com/zhouzirui/geo-chat/backend/internal/model/chat"
)

var (
	errMissingJSON     = errors.New("missing json object")
	errEmptyAnswer     = errors.New("answer is empty")
	errPartialLocation = errors.New("lat and lon must both be set or both be null")
)

// Answer is a resolved reply, located when the question was about a place.
type Answer struct {
	Text     string
	Location *chat.Location
}

// ResolverConfig tunes a Resolver.
type ResolverConfig struct {
	// Timeout bounds a single model call. Zero disables the bound.
	Timeout time.Duration
}

// Resolver turns geography questions into answers through an eino prompt/model chain.
type Resolver struct {
	chain              compose.Runnable[map[string]any, *schema.Message]
	formatInstructions string
	timeout            time.Duration
}

// NewResolverFromConfig builds the Ark chat model from cfg and wraps it in a Resolver.
func NewResolverFromConfig(ctx context.Context, cfg config.AIConfig) (*Resolver, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewResolver(ctx, chatModel, ResolverConfig{Timeout: cfg.ResolveTimeout})
}

// NewResolver compiles the question chain around chatModel.
func NewResolver(ctx context.Context, chatModel model.ChatModel, cfg ResolverConfig) (*Resolver, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	instructions, err := buildFormatInstructions()
	if err != nil {
		return nil, err
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemInstruction+"\n{format_instructions}\n"),
		schema.UserMessage("{question}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile geo chain: %w", err)
	}

	return &Resolver{
		chain:              runnable,
		formatInstructions: instructions,
		timeout:            cfg.Timeout,
	}, nil
}

// FormatInstructions returns the output contract appended to the system prompt.
func (r *Resolver) FormatInstructions() string {
	return r.formatInstructions
}

// Resolve asks the model and parses its structured reply. Every failure is a *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, question string) (Answer, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	started := time.Now()
	msg, err := r.chain.Invoke(ctx, map[string]any{
		"format_instructions": r.formatInstructions,
		"question":            question,
	})
	if err != nil {
		return Answer{}, &ResolutionError{Question: question, Stage: StageInvoke, Err: err}
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return Answer{}, &ResolutionError{Question: question, Stage: StageParse, Err: errMissingJSON}
	}

	answer, err := parseAnswer(msg.Content)
	if err != nil {
		stage := StageParse
		if errors.Is(err, chat.ErrInvalidLocation) || errors.Is(err, errPartialLocation) || errors.Is(err, errEmptyAnswer) {
			stage = StageValidate
		}
		return Answer{}, &ResolutionError{Question: question, Stage: stage, Err: err}
	}

	log.Debug().
		Int("question_len", len(question)).
		Bool("located", answer.Location != nil).
		Dur("elapsed", time.Since(started)).
		Msg("ai: resolved geo answer")
	return answer, nil
}

// parseAnswer extracts the outermost JSON object from content; models like to wrap it in prose or code fences.
func parseAnswer(content string) (Answer, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return Answer{}, errMissingJSON
	}

	var payload answerPayload
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return Answer{}, fmt.Errorf("decode answer: %w", err)
	}

	text := strings.TrimSpace(payload.Answer)
	if text == "" {
		return Answer{}, errEmptyAnswer
	}

	switch {
	case payload.Lat == nil && payload.Lon == nil:
		return Answer{Text: text}, nil
	case payload.Lat == nil || payload.Lon == nil:
		return Answer{}, errPartialLocation
	}

	loc := chat.Location{Lat: *payload.Lat, Lon: *payload.Lon}
	if err := loc.Validate(); err != nil {
		return Answer{}, err
	}
	return Answer{Text: text, Location: &loc}, nil
}
