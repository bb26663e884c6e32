package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "brand-studio-api/internal/domain/service"
	wfmodel "brand-studio-api/internal/workflow/model"
	wfnode "brand-studio-api/internal/workflow/node"
	workflowport "brand-studio-api/internal/workflow/port"
	workflowprompt "brand-studio-api/internal/workflow/prompt"
	"brand-studio-api/pkg/logger"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

// FunnelChain 按漏斗类型（brand/logo/shorts）构建并缓存编排链
type FunnelChain struct {
	factory workflowport.ChatModelFactory
	kind    string

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.FunnelGenerateInput, *schema.Message]
	chainErr  error
}

func NewFunnelChain(factory workflowport.ChatModelFactory, kind string) *FunnelChain {
	return &FunnelChain{factory: factory, kind: strings.TrimSpace(kind)}
}

func (c *FunnelChain) Invoke(ctx context.Context, in *wfmodel.FunnelGenerateInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

// FormatMessages 渲染当前漏斗的 Prompt 消息，流式路径直接调用 ChatModel 时复用
func (c *FunnelChain) FormatMessages(ctx context.Context, in *wfmodel.FunnelGenerateInput) ([]*schema.Message, error) {
	if c == nil {
		return nil, fmt.Errorf("chain is nil")
	}
	return formatFunnelMessages(ctx, c.kind, in)
}

type funnelChainState struct {
	In       *wfmodel.FunnelGenerateInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *FunnelChain) getChain() (compose.Runnable[*wfmodel.FunnelGenerateInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *FunnelChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.FunnelGenerateInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.FunnelGenerateInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.FunnelGenerateInput) (*funnelChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &funnelChainState{In: in}, nil
		}),
		compose.WithNodeName("funnel.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *funnelChainState) (*funnelChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatFunnelMessages(ctx, c.kind, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("funnel.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *funnelChainState) (*funnelChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "funnel_generate_"+c.kind, strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildFunnelModelOptions(c.kind, st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"kind", c.kind,
					"provider", strings.TrimSpace(st.In.Provider),
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildFunnelModelOptions(c.kind, st.In, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("funnel.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *funnelChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("funnel.finalize"),
	)

	return chain.Compile(ctx)
}

func funnelPromptID(kind string) (workflowprompt.PromptID, error) {
	switch kind {
	case "brand":
		return workflowprompt.PromptBrandIntakeV1, nil
	case "logo":
		return workflowprompt.PromptLogoFunnelV1, nil
	case "shorts":
		return workflowprompt.PromptShortsFunnelV1, nil
	default:
		return "", fmt.Errorf("unknown funnel kind: %s", kind)
	}
}

func formatFunnelMessages(ctx context.Context, kind string, in *wfmodel.FunnelGenerateInput) ([]*schema.Message, error) {
	id, err := funnelPromptID(kind)
	if err != nil {
		return nil, err
	}
	tpl, err := defaultPromptRegistry.ChatTemplate(id)
	if err != nil {
		return nil, err
	}
	profile := "{}"
	if len(in.Profile) > 0 {
		profile = strings.TrimSpace(string(in.Profile))
		if profile == "" {
			profile = "{}"
		}
	}
	vars := map[string]any{
		"stage":             strings.TrimSpace(in.Stage),
		"profile_json":      profile,
		"history_block":     wfnode.BuildHistoryBlock(in.History),
		"prompt":            strings.TrimSpace(in.Prompt),
		"attachments_block": wfnode.BuildAttachmentsBlock(in.Attachments),
	}
	return tpl.Format(ctx, vars)
}

func buildFunnelModelOptions(kind string, in *wfmodel.FunnelGenerateInput, enableSchema bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in == nil {
		return opts
	}
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if strings.TrimSpace(in.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(in.Model)))
	}

	if enableSchema {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "funnel_" + kind,
					"strict": false,
					"schema": funnelJSONSchema(kind),
				},
			},
		}))
	}

	return opts
}

func funnelJSONSchema(kind string) map[string]any {
	js := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"assistant_message", "action", "requires_confirmation"},
		"properties": map[string]any{
			"assistant_message": map[string]any{"type": "string"},
			"marker": map[string]any{
				"type": "string",
				"enum": []any{
					"", "project_created", "type_offer", "style_offer", "refine_offer",
					"extra_detail_ask", "logo_choice_ask", "logo_list_offer", "satisfaction_ask",
				},
			},
			"action": map[string]any{
				"type": "string",
				"enum": []any{"none", "propose_creation", "create_project"},
			},
			"requires_confirmation": map[string]any{"type": "boolean"},
			"project": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []any{"name"},
				"properties": map[string]any{
					"name":        map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
				},
			},
		},
	}
	if kind == "brand" {
		props := js["properties"].(map[string]any)
		props["profile"] = map[string]any{
			"type":                 "object",
			"additionalProperties": true,
		}
	}
	return js
}
