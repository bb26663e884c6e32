package generation

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"

	"brand-studio-api/internal/application/session"
	llmctx "brand-studio-api/internal/domain/service"
	wfmodel "brand-studio-api/internal/workflow/model"
	"brand-studio-api/pkg/logger"
)

// FinalizeFunc 在全部增量送出后、done 之前被调用一次，
// 输入为完整助手文本，返回需要随流补发的元数据（可为 nil）。
type FinalizeFunc func(fullText string) *session.StreamMetadata

// GenerateStream 执行一次流式生成，把增量按到达顺序写入返回的事件通道。
// 通道在 done 或 error 事件之后关闭。取消 ctx 会终止底层流。
func (g *FunnelGenerator) GenerateStream(ctx context.Context, in *wfmodel.FunnelGenerateInput, finalize FinalizeFunc) (<-chan session.StreamEvent, error) {
	if g == nil || g.factory == nil {
		return nil, errors.New("funnel workflow not configured")
	}
	if in == nil {
		return nil, errors.New("input is nil")
	}

	msgs, err := g.chain.FormatMessages(ctx, in)
	if err != nil {
		return nil, err
	}

	ctx = llmctx.WithWorkflowProvider(ctx, "funnel_stream_"+g.kind, strings.TrimSpace(in.Provider))
	chatModel, err := g.factory.Get(ctx, strings.TrimSpace(in.Provider))
	if err != nil {
		return nil, err
	}

	// 流式路径不附加 JSON Schema，输出为纯文本增量
	start := time.Now()
	reader, err := chatModel.Stream(ctx, msgs, buildStreamModelOptions(in)...)
	if err != nil {
		observeGeneration(g.kind, start, err)
		return nil, err
	}

	events := make(chan session.StreamEvent, 16)

	go func() {
		defer close(events)
		defer reader.Close()

		var full strings.Builder
		for {
			msg, err := reader.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				observeGeneration(g.kind, start, err)
				logger.Error(ctx, "funnel stream failed", err, "kind", g.kind)
				select {
				case events <- session.StreamEvent{Type: session.StreamEventError, ErrMsg: err.Error()}:
				case <-ctx.Done():
				}
				return
			}
			if msg == nil || msg.Content == "" {
				continue
			}
			full.WriteString(msg.Content)
			select {
			case events <- session.StreamEvent{Type: session.StreamEventDelta, Delta: msg.Content}:
			case <-ctx.Done():
				return
			}
		}

		observeGeneration(g.kind, start, nil)

		if finalize != nil {
			if meta := finalize(full.String()); meta != nil {
				select {
				case events <- session.StreamEvent{Type: session.StreamEventMetadata, Metadata: meta}:
				case <-ctx.Done():
					return
				}
			}
		}
		select {
		case events <- session.StreamEvent{Type: session.StreamEventDone}:
		case <-ctx.Done():
		}
	}()

	return events, nil
}

func buildStreamModelOptions(in *wfmodel.FunnelGenerateInput) []model.Option {
	opts := make([]model.Option, 0, 3)
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
	return opts
}
