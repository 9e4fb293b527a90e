package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/geo-chat/backend/internal/model/chat"
	"github.com/zhouzirui/geo-chat/backend/internal/service/ai"
)

var (
	ErrSessionRequired = errors.New("session id is required")
	ErrMessageTooShort = errors.New("message too short")
)

const (
	DefaultMinLength    = 6
	DefaultFallbackText = "Désolé, je n'ai pas pu déterminer de lieu pour cette question."
)

// Resolver answers a geography question.
type Resolver interface {
	Resolve(ctx context.Context, question string) (ai.Answer, error)
}

// Option customises a Service.
type Option func(*Service)

// WithMinLength sets the shortest accepted submission in runes.
func WithMinLength(n int) Option {
	return func(s *Service) {
		if n < 1 {
			n = 1
		}
		s.minLength = n
	}
}

// WithSeed replaces the exchange new sessions start with.
func WithSeed(seed chat.Transcript) Option {
	return func(s *Service) {
		s.seed = seed.Clone()
	}
}

// WithFallbackText sets the bot reply used when resolution fails.
func WithFallbackText(text string) Option {
	return func(s *Service) {
		if text != "" {
			s.fallbackText = text
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// Service owns the transcripts of every conversation.
type Service struct {
	store        chat.Store
	resolver     Resolver
	minLength    int
	seed         chat.Transcript
	fallbackText string
	now          func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// NewService wires a transcript store and an answer resolver.
func NewService(store chat.Store, resolver Resolver, opts ...Option) *Service {
	svc := &Service{
		store:        store,
		resolver:     resolver,
		minLength:    DefaultMinLength,
		seed:         chat.Seed(),
		fallbackText: DefaultFallbackText,
		now:          time.Now,
		locks:        make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// IsValidation reports whether err came from rejecting the user's input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMessageTooShort) || errors.Is(err, chat.ErrEmptyText)
}

// Transcript returns the session transcript, seeding unknown sessions.
func (s *Service) Transcript(ctx context.Context, sessionID string) (chat.Transcript, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	return s.ensureSession(ctx, sessionID)
}

// AppendExchange records the user's question and the resolved bot answer.
// Rejected input leaves the transcript untouched and never reaches the resolver.
func (s *Service) AppendExchange(ctx context.Context, sessionID, text string) (chat.Transcript, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	unlock := s.lockSession(sessionID)
	defer unlock()

	transcript, err := s.ensureSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if utf8.RuneCountInString(text) < s.minLength {
		return transcript, ErrMessageTooShort
	}

	userMsg, err := chat.NewUserMessage(text)
	if err != nil {
		return transcript, err
	}
	userMsg.CreatedAt = s.now().UTC()

	botMsg := s.answer(ctx, sessionID, text)
	botMsg.CreatedAt = s.now().UTC()

	err = s.store.Append(ctx, sessionID, userMsg, botMsg)
	if errors.Is(err, chat.ErrSessionNotFound) && len(transcript) == 0 {
		// Stores that cannot hold an empty transcript never created the session.
		err = s.store.Create(ctx, sessionID, chat.Transcript{userMsg, botMsg})
	}
	if err != nil {
		return nil, fmt.Errorf("append exchange: %w", err)
	}

	return append(transcript, userMsg, botMsg), nil
}

// answer resolves the question, degrading to the fallback reply on failure.
func (s *Service) answer(ctx context.Context, sessionID, question string) chat.Message {
	answer, err := s.resolver.Resolve(ctx, question)
	if err == nil {
		msg, buildErr := chat.NewBotMessage(answer.Text, answer.Location)
		if buildErr == nil {
			return msg
		}
		err = buildErr
	}

	log.Warn().Err(err).Str("session_id", sessionID).Msg("chat: answer resolution failed, using fallback reply")
	return chat.Message{Role: chat.RoleBot, Text: s.fallbackText}
}

func (s *Service) ensureSession(ctx context.Context, sessionID string) (chat.Transcript, error) {
	transcript, err := s.store.Load(ctx, sessionID)
	if err == nil {
		return transcript, nil
	}
	if !errors.Is(err, chat.ErrSessionNotFound) {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	if err := s.store.Create(ctx, sessionID, s.seed); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	log.Info().Str("session_id", sessionID).Msg("chat: session created")

	transcript, err = s.store.Load(ctx, sessionID)
	if errors.Is(err, chat.ErrSessionNotFound) {
		// An empty seed leaves nothing in the store to load.
		return chat.Transcript{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	return transcript, nil
}

// lockSession serialises exchanges per session so user/bot pairs never interleave.
func (s *Service) lockSession(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}
