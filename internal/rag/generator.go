package rag

import (
	"context"
	"log"
	"strings"

	"github.com/dream-ai/ragchat/internal/conversation"
	"github.com/dream-ai/ragchat/internal/llm"
	"github.com/dream-ai/ragchat/internal/metrics"
)

// Replies returned instead of an error when the model call fails
const (
	AuthFailureReply      = "I'm having trouble connecting to my language service right now because of an authentication problem. Please check the API key configuration."
	RateLimitFailureReply = "I'm receiving too many requests at the moment. Please wait a little and try again."
	GenericFailureReply   = "Sorry, I couldn't generate a response right now. Please try again later."
)

// DefaultTemperature is the sampling temperature used when none is configured
const DefaultTemperature = 0.7

const guidelines = `Guidelines:
- Answer only from the context below and the conversation so far.
- Cite the source label (for example [Source 1]) when you use a passage.
- Keep answers concise and well organised; use lists for multi-part answers.
- If the answer is not in the context, say that you don't know.`

const noContextNote = `No relevant passages were found in the indexed documents for this question.
Tell the user you could not find this information in the documents and suggest rephrasing or contacting the university directly.`

// Generator turns a question, retrieved context and history into a reply
type Generator struct {
	model       llm.ChatModel
	persona     string
	temperature float64
	metrics     *metrics.Metrics
	logger      *log.Logger
}

// NewGenerator creates a generator. Empty persona and negative temperature use defaults;
// zero is a valid temperature.
func NewGenerator(model llm.ChatModel, persona string, temperature float64, m *metrics.Metrics, logger *log.Logger) *Generator {
	if strings.TrimSpace(persona) == "" {
		persona = "Act as an expert university admission counselor. " +
			"Never give answers outside the provided context. " +
			"If you don't know the answer, just say you don't know."
	}
	if temperature < 0 {
		temperature = DefaultTemperature
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[GEN] ", log.LstdFlags)
	}
	return &Generator{
		model:       model,
		persona:     persona,
		temperature: temperature,
		metrics:     m,
		logger:      logger,
	}
}

// ModelName returns the name of the underlying model
func (g *Generator) ModelName() string {
	return g.model.ModelName()
}

// SystemPrompt builds the system instruction for the retrieved context
func (g *Generator) SystemPrompt(retrieved string) string {
	var b strings.Builder
	b.WriteString(g.persona)
	b.WriteString("\n\n")
	b.WriteString(guidelines)
	b.WriteString("\n\n")
	if hasContext(retrieved) {
		b.WriteString("Context:\n")
		b.WriteString(strings.TrimSpace(retrieved))
	} else {
		b.WriteString(noContextNote)
	}
	return b.String()
}

// Messages builds the model input: system instruction, history oldest first, then the prompt
func (g *Generator) Messages(retrieved, prompt string, history []conversation.Message) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: g.SystemPrompt(retrieved)})
	for _, m := range history {
		role := llm.RoleUser
		if m.Sender == conversation.SenderBot {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Text})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: prompt})
	return msgs
}

// Generate asks the model for a reply. It never fails: model errors are logged,
// counted and replaced by a fixed reply matching the failure kind.
func (g *Generator) Generate(ctx context.Context, retrieved, prompt string, history []conversation.Message) string {
	reply, err := g.model.Chat(ctx, g.Messages(retrieved, prompt, history), llm.Options{Temperature: g.temperature})
	if err != nil {
		kind := llm.KindOf(err)
		g.logger.Printf("generation failed (%s): %v", kind, err)
		g.metrics.GenerationFailed(kind.String())
		return FallbackReply(kind)
	}
	return reply
}

// FallbackReply returns the fixed reply for a failure kind
func FallbackReply(kind llm.Kind) string {
	switch kind {
	case llm.KindAuth:
		return AuthFailureReply
	case llm.KindRateLimit:
		return RateLimitFailureReply
	default:
		return GenericFailureReply
	}
}
