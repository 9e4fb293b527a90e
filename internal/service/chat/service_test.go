package chat_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/zhouzirui/geo-chat/backend/internal/model/chat"
	"github.com/zhouzirui/geo-chat/backend/internal/service/ai"
	chat "github.com/zhouzirui/geo-chat/backend/internal/service/chat"
)

type stubResolver struct {
	calls  atomic.Int32
	answer ai.Answer
	err    error
	echo   bool
}

func (r *stubResolver) Resolve(_ context.Context, question string) (ai.Answer, error) {
	r.calls.Add(1)
	if r.err != nil {
		return ai.Answer{}, r.err
	}
	if r.echo {
		return ai.Answer{Text: "answer to " + question}, nil
	}
	return r.answer, nil
}

func eiffelResolver() *stubResolver {
	return &stubResolver{answer: ai.Answer{
		Text:     "Paris, France",
		Location: &model.Location{Lat: 48.8566, Lon: 2.3522},
	}}
}

func TestTranscriptSeedsNewSession(t *testing.T) {
	svc := chat.NewService(model.NewMemoryStore(), eiffelResolver())

	transcript, err := svc.Transcript(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	assert.Equal(t, model.Seed()[0].Text, transcript[0].Text)
	require.NotNil(t, transcript[1].Location)
	assert.Equal(t, 33.7490, transcript[1].Location.Lat)
}

func TestTranscriptRequiresSession(t *testing.T) {
	svc := chat.NewService(model.NewMemoryStore(), eiffelResolver())

	_, err := svc.Transcript(context.Background(), "")
	require.ErrorIs(t, err, chat.ErrSessionRequired)

	_, err = svc.AppendExchange(context.Background(), "", "Where is the Eiffel Tower?")
	require.ErrorIs(t, err, chat.ErrSessionRequired)
}

func TestAppendExchangeIgnoresShortMessages(t *testing.T) {
	resolver := eiffelResolver()
	svc := chat.NewService(model.NewMemoryStore(), resolver)
	ctx := context.Background()

	for _, text := range []string{"", "hi", "12345", "héllo"} {
		transcript, err := svc.AppendExchange(ctx, "session-1", text)
		require.ErrorIs(t, err, chat.ErrMessageTooShort, text)
		assert.True(t, chat.IsValidation(err))
		assert.Len(t, transcript, 2, text)
	}

	stored, err := svc.Transcript(ctx, "session-1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.Zero(t, resolver.calls.Load())
}

func TestAppendExchangeRejectsBlankText(t *testing.T) {
	resolver := eiffelResolver()
	svc := chat.NewService(model.NewMemoryStore(), resolver)

	transcript, err := svc.AppendExchange(context.Background(), "session-1", "        ")
	require.ErrorIs(t, err, model.ErrEmptyText)
	assert.True(t, chat.IsValidation(err))
	assert.Len(t, transcript, 2)
	assert.Zero(t, resolver.calls.Load())
}

func TestAppendExchangeAppendsUserThenBot(t *testing.T) {
	resolver := eiffelResolver()
	svc := chat.NewService(model.NewMemoryStore(), resolver)
	ctx := context.Background()

	transcript, err := svc.AppendExchange(ctx, "session-1", "Where is the Eiffel Tower?")
	require.NoError(t, err)
	require.Len(t, transcript, 4)

	user, bot := transcript[2], transcript[3]
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, "Where is the Eiffel Tower?", user.Text)
	assert.Nil(t, user.Location)
	assert.Equal(t, model.RoleBot, bot.Role)
	assert.Equal(t, "Paris, France", bot.Text)
	require.NotNil(t, bot.Location)
	assert.Equal(t, model.Location{Lat: 48.8566, Lon: 2.3522}, *bot.Location)
	assert.False(t, user.CreatedAt.IsZero())
	assert.EqualValues(t, 1, resolver.calls.Load())

	stored, err := svc.Transcript(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, transcript, stored)
}

func TestAppendExchangeMinLengthIsConfigurable(t *testing.T) {
	resolver := eiffelResolver()
	svc := chat.NewService(model.NewMemoryStore(), resolver, chat.WithMinLength(2))

	transcript, err := svc.AppendExchange(context.Background(), "session-1", "hi")
	require.NoError(t, err)
	assert.Len(t, transcript, 4)
}

func TestAppendExchangeFallsBackOnResolutionError(t *testing.T) {
	resolver := &stubResolver{err: &ai.ResolutionError{Stage: ai.StageInvoke, Err: errors.New("timeout")}}
	svc := chat.NewService(model.NewMemoryStore(), resolver, chat.WithFallbackText("no idea"))

	transcript, err := svc.AppendExchange(context.Background(), "session-1", "What is the meaning of life?")
	require.NoError(t, err)
	require.Len(t, transcript, 4)
	assert.Equal(t, model.RoleBot, transcript[3].Role)
	assert.Equal(t, "no idea", transcript[3].Text)
	assert.Nil(t, transcript[3].Location)
}

func TestAppendExchangeFallsBackOnInvalidAnswer(t *testing.T) {
	resolver := &stubResolver{answer: ai.Answer{Text: "Somewhere", Location: &model.Location{Lat: 200}}}
	svc := chat.NewService(model.NewMemoryStore(), resolver)

	transcript, err := svc.AppendExchange(context.Background(), "session-1", "Where is nowhere?")
	require.NoError(t, err)
	assert.Equal(t, chat.DefaultFallbackText, transcript[3].Text)
	assert.Nil(t, transcript[3].Location)
}

func TestSessionsAreIsolated(t *testing.T) {
	svc := chat.NewService(model.NewMemoryStore(), eiffelResolver())
	ctx := context.Background()

	_, err := svc.AppendExchange(ctx, "alice", "Where is the Eiffel Tower?")
	require.NoError(t, err)

	bob, err := svc.Transcript(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bob, 2)

	alice, err := svc.Transcript(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, alice, 4)
}

func TestEmptySeed(t *testing.T) {
	svc := chat.NewService(model.NewMemoryStore(), eiffelResolver(), chat.WithSeed(nil))
	ctx := context.Background()

	transcript, err := svc.Transcript(ctx, "fresh")
	require.NoError(t, err)
	assert.Empty(t, transcript)

	transcript, err = svc.AppendExchange(ctx, "fresh", "Where is the Eiffel Tower?")
	require.NoError(t, err)
	assert.Len(t, transcript, 2)
}

func TestConcurrentExchangesKeepPairsTogether(t *testing.T) {
	svc := chat.NewService(model.NewMemoryStore(), &stubResolver{echo: true})
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AppendExchange(ctx, "shared", fmt.Sprintf("question number %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	transcript, err := svc.Transcript(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, transcript, 2+2*workers)

	for i := 2; i < len(transcript); i += 2 {
		assert.Equal(t, model.RoleUser, transcript[i].Role)
		assert.Equal(t, "answer to "+transcript[i].Text, transcript[i+1].Text)
	}
}
