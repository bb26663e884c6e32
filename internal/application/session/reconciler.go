package session

import (
	"context"
	"encoding/json"
	"sync"

	"brand-studio-api/internal/domain/entity"
	"brand-studio-api/pkg/errors"
)

// StreamEventType 流式生成事件类型
type StreamEventType string

const (
	StreamEventDelta    StreamEventType = "delta"
	StreamEventMetadata StreamEventType = "metadata"
	StreamEventError    StreamEventType = "error"
	StreamEventDone     StreamEventType = "done"
)

// StreamMetadata 流中途到达的元数据。
// 只能更新会话令牌/项目引用、附件与标记，不允许触碰未关闭轮次的文本。
type StreamMetadata struct {
	SessionToken string             `json:"session_token,omitempty"`
	ProjectID    *int64             `json:"project_id,omitempty"`
	Attachments  []entity.AssetRef  `json:"attachments,omitempty"`
	Marker       entity.TurnMarker  `json:"marker,omitempty"`
	Profile      json.RawMessage    `json:"profile,omitempty"`
}

// StreamEvent 一次流式生成调用产生的单个事件
type StreamEvent struct {
	Type     StreamEventType
	Delta    string
	Metadata *StreamMetadata
	ErrMsg   string
}

// StreamResult 一次流式生成的最终落地结果
type StreamResult struct {
	// Turn 已关闭的助手轮次；首个增量前失败或被中断时为 nil
	Turn *entity.ConversationTurn
	// Profile 流中携带的结构化品牌画像（若有）
	Profile json.RawMessage
	// ErrNotice 部分文本已落地后发生传输错误时的用户可见通知
	ErrNotice string
	// Aborted 被更新的流或取消中断
	Aborted bool
}

// Reconciler 将流式生成事件按到达顺序落入 Turn Log。
// 每个对话同一时刻最多一条活跃流：新的 Run 使上一条流失效，
// 其未关闭轮次（含部分文本）被丢弃。
type Reconciler struct {
	mu       sync.Mutex
	log      *TurnLog
	identity *IdentityManager
	gen      uint64
}

// NewReconciler 创建流式协调器
func NewReconciler(log *TurnLog, identity *IdentityManager) *Reconciler {
	return &Reconciler{log: log, identity: identity}
}

// Run 消费一条事件流直至 done / error / 取消。
// 未关闭轮次在首个增量请求之前打开，保证首 token 迟到时仍可渲染“生成中”。
// 代际判定与随后的日志写入持同一把锁：过期流的增量不可能落进后继流的轮次。
func (r *Reconciler) Run(ctx context.Context, events <-chan StreamEvent) (*StreamResult, error) {
	gen, err := r.begin()
	if err != nil {
		return nil, err
	}

	res := &StreamResult{}
	sawDelta := false

	for {
		select {
		case <-ctx.Done():
			r.abortIfCurrent(gen)
			res.Aborted = true
			return res, errors.Wrap(ctx.Err(), errors.CodeStreamAborted, "stream cancelled")

		case ev, ok := <-events:
			if !ok {
				// 事件通道提前关闭等价于 done
				return r.finish(gen, res)
			}

			switch ev.Type {
			case StreamEventDelta:
				applied, err := r.appendIfCurrent(gen, ev.Delta)
				if err != nil {
					return nil, err
				}
				if !applied {
					res.Aborted = true
					return res, errors.New(errors.CodeStreamAborted, "superseded by a newer stream")
				}
				sawDelta = true

			case StreamEventMetadata:
				if !r.applyMetadataIfCurrent(gen, ev.Metadata, res) {
					res.Aborted = true
					return res, errors.New(errors.CodeStreamAborted, "superseded by a newer stream")
				}

			case StreamEventError:
				return r.fail(gen, res, sawDelta, ev.ErrMsg)

			case StreamEventDone:
				return r.finish(gen, res)
			}
		}
	}
}

// begin 宣告新流并使上一条流失效，同锁内打开后继的未关闭轮次
func (r *Reconciler) begin() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	// 上一条流留下的未关闭轮次随之作废
	r.log.DiscardOpen()
	if _, err := r.log.OpenAssistant(""); err != nil {
		return 0, err
	}
	return r.gen, nil
}

// appendIfCurrent 仅当代际仍为当前时追加增量，返回是否命中当前流
func (r *Reconciler) appendIfCurrent(gen uint64, delta string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen != gen {
		return false, nil
	}
	return true, r.log.AppendToOpen(delta)
}

func (r *Reconciler) abortIfCurrent(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen == gen {
		r.log.DiscardOpen()
	}
}

// applyMetadataIfCurrent 应用元数据：重绑令牌/项目、附件与标记。
// 不触碰文本；过期流返回 false 且不产生任何写入。
func (r *Reconciler) applyMetadataIfCurrent(gen uint64, meta *StreamMetadata, res *StreamResult) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen != gen {
		return false
	}
	if meta == nil {
		return true
	}
	if r.identity != nil {
		r.identity.MintToken(meta.SessionToken)
		if meta.ProjectID != nil {
			// Promote 对同一 ID 幂等；不同 ID 属协调缺陷，记录后忽略
			_ = r.identity.Promote(*meta.ProjectID, meta.SessionToken)
		}
	}
	if len(meta.Attachments) > 0 {
		_ = r.log.SetOpenAttachments(meta.Attachments)
	}
	if meta.Marker != entity.MarkerNone {
		_ = r.log.SetOpenMarker(meta.Marker)
	}
	if len(meta.Profile) > 0 {
		res.Profile = meta.Profile
	}
	return true
}

// finish done：无条件关闭未关闭轮次
func (r *Reconciler) finish(gen uint64, res *StreamResult) (*StreamResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen != gen {
		res.Aborted = true
		return res, errors.New(errors.CodeStreamAborted, "superseded by a newer stream")
	}
	res.Turn = r.log.CloseOpen()
	return res, nil
}

// fail 传输错误：首个增量前整条丢弃（避免空气泡），
// 已有部分文本时按现状关闭并单独上报通知。漏斗阶段不前进。
func (r *Reconciler) fail(gen uint64, res *StreamResult, sawDelta bool, msg string) (*StreamResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen != gen {
		res.Aborted = true
		return res, errors.New(errors.CodeStreamAborted, "superseded by a newer stream")
	}
	if !sawDelta {
		r.log.DiscardOpen()
		return res, errors.New(errors.CodeLLMProviderError, msg)
	}
	res.Turn = r.log.CloseOpen()
	res.ErrNotice = msg
	return res, nil
}
