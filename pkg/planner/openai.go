package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/matzehuels/pagesmith/pkg/core/content"
)

// DefaultCopyModel is the chat model used when none is configured.
const DefaultCopyModel = "gpt-4o-mini"

// OpenAIConfig configures an OpenAICopywriter.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *log.Logger
}

// OpenAICopywriter generates copy with an OpenAI-compatible chat model
// instead of the planning service.
type OpenAICopywriter struct {
	model  string
	hasKey bool
	opts   []option.RequestOption
	logger *log.Logger
}

// NewOpenAICopywriter builds a copywriter. An empty API key is not an
// error: GenerateCopy then returns an empty patch so layouts keep their
// seeded defaults.
func NewOpenAICopywriter(cfg OpenAIConfig) *OpenAICopywriter {
	model := cfg.Model
	if model == "" {
		model = DefaultCopyModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAICopywriter{model: model, hasKey: cfg.APIKey != "", opts: opts, logger: logger}
}

// Enabled reports whether an API key was configured.
func (o *OpenAICopywriter) Enabled() bool { return o.hasKey }

// GenerateCopy asks the model for a JSON object keyed by section type.
func (o *OpenAICopywriter) GenerateCopy(ctx context.Context, req CopyRequest) (content.Patch, error) {
	if !o.Enabled() {
		o.logger.Warn("no API key for copy generation, keeping defaults")
		return content.Patch{}, nil
	}
	client := openai.NewClient(o.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(CopyPrompt(req)),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(800),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai: %v", ErrNetwork, err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: empty choices")
	}
	patch, err := content.DecodePatch([]byte(stripFence(resp.Choices[0].Message.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return patch, nil
}

// CopyPrompt renders the system prompt for a copy request.
func CopyPrompt(req CopyRequest) string {
	var b strings.Builder
	b.WriteString("You are a marketing copy generator.\n\n")
	b.WriteString("Return STRICT JSON only.\nDo not include markdown.\nDo not explain.\n\n")
	b.WriteString("Match structure exactly.\n\n")
	b.WriteString("Tone rules:\n")
	b.WriteString("  - fintech: trustworthy, data-driven\n")
	b.WriteString("  - creative: expressive, immersive\n")
	b.WriteString("  - dashboard: analytical, concise\n")
	b.WriteString("  - landing: persuasive, benefit-focused\n\n")
	if req.LayoutMode != "" {
		fmt.Fprintf(&b, "Layout mode: %s\n", req.LayoutMode)
	}
	fmt.Fprintf(&b, "Sections provided: %s\n\n", strings.Join(req.Sections, ", "))
	fmt.Fprintf(&b, "User intent: %q\n\n", req.Prompt)
	b.WriteString("Generate high-quality microcopy keyed by section type, for example:\n")
	b.WriteString(copyExample)
	return b.String()
}

const copyExample = `{
  "hero": { "heading": "", "subheading": "", "cta": "" },
  "fullscreenHero": { "heading": "", "subheading": "", "cta": "" },
  "featuresRow": [ { "title": "", "description": "" } ],
  "bentoGrid": [ { "title": "", "subtext": "" } ],
  "splitReveal": { "title": "", "description": "" },
  "kpiTiles": [ { "label": "", "value": "" } ]
}
`

// stripFence removes a surrounding markdown code fence some models add
// despite instructions.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

var _ Copywriter = (*OpenAICopywriter)(nil)
