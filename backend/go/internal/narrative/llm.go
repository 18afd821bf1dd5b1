package narrative

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/internal/eda"
	"autoeda/backend/go/internal/models"
	"autoeda/backend/go/pkg/logger"

	olla "github.com/ollama/ollama/api"
)

const (
	ModeRule = "rule"
	ModeLLM  = "llm"
)

// Completer 生成一段文本，LLM 模式使用。
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Ollama 是基于 Ollama API 的 Completer。
type Ollama struct {
	client *olla.Client
	model  string
}

// NewOllama 创建一个 Ollama 客户端。baseURL 为空时使用 http://localhost:11434。
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	hc := &http.Client{Timeout: 120 * time.Second}
	return &Ollama{client: olla.NewClient(parsedURL, hc), model: model}, nil
}

// Complete 以非流式方式调用 Generate。
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	var out strings.Builder
	stream := false
	err := o.client.Generate(ctx, &olla.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp olla.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content with ollama: %w", err)
	}
	return strings.TrimSpace(out.String()), nil
}

// Generator 按配置的模式生成叙述。
type Generator struct {
	mode string
	llm  Completer
	log  *logger.Logger
}

// NewGenerator 根据配置创建 Generator。LLM 模式下客户端创建失败时退回规则模式。
func NewGenerator(cfg config.NarrativeConfig, log *logger.Logger) *Generator {
	g := &Generator{mode: ModeRule, log: log}
	if cfg.Mode != ModeLLM {
		return g
	}
	client, err := newCompleter(context.Background(), cfg)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).
			WithPayload(map[string]interface{}{"provider": cfg.Provider}).
			Warn("llm unavailable, using rule-based narrative")
		return g
	}
	return WithCompleter(client, log)
}

// WithCompleter 返回使用给定 Completer 的 LLM 模式 Generator。
func WithCompleter(c Completer, log *logger.Logger) *Generator {
	return &Generator{mode: ModeLLM, llm: c, log: log}
}

// Mode 返回实际生效的模式。
func (g *Generator) Mode() string {
	return g.mode
}

// Generate 先生成规则化叙述；LLM 模式下再让模型改写执行摘要，失败时保留原文。
func (g *Generator) Generate(ctx context.Context, res *eda.Result) Narrative {
	n := Generate(res)
	if g == nil || g.mode != ModeLLM || g.llm == nil {
		return n
	}
	text, err := g.llm.Complete(ctx, summaryPrompt(res, n))
	if err != nil || text == "" {
		msg := "empty completion"
		if err != nil {
			msg = err.Error()
		}
		g.log.WithError(models.ErrorInfo{Message: msg}).
			WithPayload(map[string]interface{}{"dataset_id": res.DatasetID}).
			Warn("llm narrative failed, keeping rule-based summary")
		return n
	}
	n.ExecutiveSummary = text
	return n
}

func summaryPrompt(res *eda.Result, n Narrative) string {
	var b strings.Builder
	b.WriteString("You are a data analyst. Rewrite the executive summary below as at most three concise sentences ")
	b.WriteString("for a business audience. Use only the facts given. Reply with the summary text only.\n\n")
	fmt.Fprintf(&b, "Dataset: %s\n", res.DatasetID)
	fmt.Fprintf(&b, "Summary: %s\n", n.ExecutiveSummary)
	if n.DataOverview != "" {
		fmt.Fprintf(&b, "Numeric overview:\n%s\n", n.DataOverview)
	}
	for _, d := range n.KeyDrivers {
		fmt.Fprintf(&b, "Driver: %s\n", d)
	}
	for _, a := range n.Anomalies {
		fmt.Fprintf(&b, "Caveat: %s\n", a)
	}
	return b.String()
}
