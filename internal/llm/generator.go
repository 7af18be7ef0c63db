package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// Generator renders a prompt template with vars and returns the reply text.
type Generator interface {
	Generate(ctx context.Context, template string, vars map[string]any) (string, error)
}

type chain = compose.Runnable[map[string]any, *schema.Message]

// ChainGenerator compiles one template -> chat model chain per distinct
// template and reuses it for later calls.
type ChainGenerator struct {
	cm model.ChatModel

	mu     sync.Mutex
	chains map[string]chain
}

func NewChainGenerator(cm model.ChatModel) *ChainGenerator {
	return &ChainGenerator{cm: cm, chains: make(map[string]chain)}
}

func (g *ChainGenerator) Generate(ctx context.Context, template string, vars map[string]any) (string, error) {
	r, err := g.chain(ctx, template)
	if err != nil {
		return "", err
	}
	msg, err := r.Invoke(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("invoke model: %w", err)
	}
	if msg == nil {
		return "", fmt.Errorf("invoke model: empty reply")
	}
	return strings.TrimSpace(msg.Content), nil
}

func (g *ChainGenerator) chain(ctx context.Context, template string) (chain, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.chains[template]; ok {
		return r, nil
	}

	r, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(prompt.FromMessages(schema.FString, schema.UserMessage(template))).
		AppendChatModel(g.cm).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile prompt chain: %w", err)
	}
	g.chains[template] = r
	return r, nil
}
