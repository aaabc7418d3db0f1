package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nutricoach/nutricoach/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
	calls  int
	block  bool
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func TestReply_WrapsPersona(t *testing.T) {
	gen := &fakeGenerator{reply: "Toma agua antes de cada comida."}
	a := NewAssistant(gen, time.Second, zerolog.Nop())

	got, err := a.Reply(context.Background(), "¿Cuánta agua debo tomar?")
	require.NoError(t, err)
	assert.Equal(t, "Toma agua antes de cada comida.", got)
	assert.True(t, strings.HasPrefix(gen.prompt, "Eres un asistente de soporte"))
	assert.True(t, strings.HasSuffix(gen.prompt, "Pregunta del paciente: ¿Cuánta agua debo tomar?"))
}

func TestReply_EmptyOutputFallsBack(t *testing.T) {
	a := NewAssistant(&fakeGenerator{reply: "  "}, time.Second, zerolog.Nop())

	got, err := a.Reply(context.Background(), "hola")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, got)
}

func TestReply_NotConfigured(t *testing.T) {
	a := NewAssistant(nil, time.Second, zerolog.Nop())
	assert.False(t, a.Configured())

	_, err := a.Reply(context.Background(), "hola")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestReply_EmptyMessage(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	a := NewAssistant(gen, time.Second, zerolog.Nop())

	_, err := a.Reply(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, gen.calls)
}

func TestReply_ProviderError(t *testing.T) {
	a := NewAssistant(&fakeGenerator{err: errors.New("quota exceeded")}, time.Second, zerolog.Nop())

	_, err := a.Reply(context.Background(), "hola")
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestReply_Timeout(t *testing.T) {
	a := NewAssistant(&fakeGenerator{block: true}, 20*time.Millisecond, zerolog.Nop())

	_, err := a.Reply(context.Background(), "hola")
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReply_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	a := NewAssistant(gen, time.Second, zerolog.Nop())

	for i := 0; i < 5; i++ {
		_, _ = a.Reply(context.Background(), "hola")
	}
	require.Equal(t, 5, gen.calls)

	_, err := a.Reply(context.Background(), "hola")
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, 5, gen.calls)
}
