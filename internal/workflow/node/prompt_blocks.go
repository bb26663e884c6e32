package node

import (
	"strings"

	wfmodel "brand-studio-api/internal/workflow/model"
)

func BuildAttachmentsBlock(attachments []wfmodel.TextAttachment) string {
	if len(attachments) == 0 {
		return ""
	}
	lines := make([]string, 0, len(attachments)+1)
	lines = append(lines, "附加材料：")
	for _, a := range attachments {
		name := strings.TrimSpace(a.Name)
		content := strings.TrimSpace(a.Content)
		if content == "" {
			continue
		}
		if name == "" {
			name = "附件"
		}
		lines = append(lines, "- "+name+"\n"+content)
	}
	if len(lines) == 1 {
		return ""
	}
	return strings.Join(lines, "\n\n")
}

// BuildHistoryBlock 将会话历史压平为对话文本块，超长历史只保留末尾部分
func BuildHistoryBlock(history []*wfmodel.FunnelHistoryTurn) string {
	if len(history) == 0 {
		return "(无历史)"
	}
	const maxTurns = 40
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	lines := make([]string, 0, len(history))
	for _, t := range history {
		if t == nil {
			continue
		}
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		lines = append(lines, strings.TrimSpace(t.Role)+": "+TruncateByRunes(content, 2000))
	}
	if len(lines) == 0 {
		return "(无历史)"
	}
	return strings.Join(lines, "\n")
}
