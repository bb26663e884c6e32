package generation

import (
	"context"

	"brand-studio-api/internal/domain/service"
	"brand-studio-api/pkg/logger"
)

// LogUsageRecorder 把 LLM 使用量写入结构化日志。
// 单租户产品不做计费，落日志即满足审计与成本核算需求。
type LogUsageRecorder struct{}

func NewLogUsageRecorder() *LogUsageRecorder {
	return &LogUsageRecorder{}
}

func (r *LogUsageRecorder) Record(ctx context.Context, in service.LLMUsageInput) error {
	logger.Info(ctx, "llm usage",
		"workflow", in.Workflow,
		"provider", in.Provider,
		"model", in.Model,
		"prompt_tokens", in.PromptTokens,
		"completion_tokens", in.CompletionTokens,
		"duration_ms", in.DurationMs,
	)
	return nil
}
