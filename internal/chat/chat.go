package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nutricoach/nutricoach/internal/domain"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const persona = "Eres un asistente de soporte de la clínica de nutrición de la Dra. Laura Rozo. " +
	"Responde con un tono profesional, cálido y claro. No des diagnósticos médicos; " +
	"solo recomendaciones generales y siempre sugiere consultar directamente con la doctora. " +
	"Pregunta del paciente: "

// FallbackReply is returned when the provider answers with no text.
const FallbackReply = "Lo siento, no pude generar una respuesta en este momento."

var ErrNotConfigured = fmt.Errorf("chat provider not configured: %w", domain.ErrUpstream)

// Generator produces text for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Assistant struct {
	gen     Generator
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[string]
	log     zerolog.Logger
}

// NewAssistant returns an assistant over gen. A nil gen yields an
// assistant whose Configured reports false.
func NewAssistant(gen Generator, timeout time.Duration, log zerolog.Logger) *Assistant {
	log = log.With().Str("component", "chat").Logger()

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "chat-provider",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &Assistant{gen: gen, timeout: timeout, cb: cb, log: log}
}

func (a *Assistant) Configured() bool {
	return a != nil && a.gen != nil
}

// Reply sends msg to the provider wrapped in the clinic persona.
func (a *Assistant) Reply(ctx context.Context, msg string) (string, error) {
	if !a.Configured() {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(msg) == "" {
		return "", fmt.Errorf("message is required: %w", domain.ErrValidation)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.cb.Execute(func() (string, error) {
		return a.gen.Generate(ctx, persona+msg)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("chat provider unavailable: %w: %w", domain.ErrUpstream, err)
		}
		a.log.Error().Err(err).Msg("chat provider call failed")
		return "", fmt.Errorf("generate reply: %w: %w", domain.ErrUpstream, err)
	}

	if strings.TrimSpace(text) == "" {
		return FallbackReply, nil
	}
	return text, nil
}
