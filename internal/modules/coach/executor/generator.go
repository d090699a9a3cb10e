package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/platform/openai"
)

// Prompt is the assembled input for one generation.
type Prompt struct {
	System string
	User   string
}

// Constraints travel with the prompt so generators that are not an LLM can
// honor them directly.
type Constraints struct {
	Persona     personas.Contract
	AvoidTopics []string
	Offer       []personas.Topic
	MaxWords    int
}

// Generator is the opaque text-completion capability.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt, c Constraints) (string, error)
}

type llmGenerator struct {
	client openai.Client
}

// NewLLMGenerator adapts the provider client to Generator.
func NewLLMGenerator(client openai.Client) Generator {
	return &llmGenerator{client: client}
}

func (g *llmGenerator) Generate(ctx context.Context, prompt Prompt, c Constraints) (string, error) {
	return g.client.GenerateText(ctx, prompt.System, prompt.User)
}

// TemplateGenerator composes replies from contract data. It backs offline
// development and tests, and is what runs when no provider key is set.
type TemplateGenerator struct{}

func (TemplateGenerator) Generate(ctx context.Context, prompt Prompt, c Constraints) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s here.", c.Persona.Name)
	var taught []string
	for i, t := range c.Offer {
		if i == 2 {
			break
		}
		if t.Tip == "" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(t.Tip)
		taught = append(taught, t.Tag)
	}
	if len(taught) == 0 {
		b.WriteString(" We've covered the basics I usually start with, so let's look at what is getting in the way this week. What is one thing you would like to change?")
	} else {
		b.WriteString(" Which of these feels doable for you this week?")
	}
	b.WriteString("\n")
	b.WriteString(formatTopicsMarker(taught))
	return b.String(), nil
}
