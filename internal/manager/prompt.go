package manager

import (
	"strings"

	"inferd/pkg/types"
)

// ChatML-style markers understood by the models we ship. llama-server does
// its own templating; this renderer is only for the in-process engine.
const (
	promptTurnStart = "<|im_start|>"
	promptTurnEnd   = "<|im_end|>"
)

// renderPrompt flattens a conversation into a single prompt and returns the
// stop sequences that terminate the assistant turn.
func renderPrompt(msgs []types.Message) (string, []string) {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(promptTurnStart)
		b.WriteString(m.Role)
		b.WriteByte('\n')
		b.WriteString(m.Content)
		b.WriteString(promptTurnEnd)
		b.WriteByte('\n')
	}
	b.WriteString(promptTurnStart)
	b.WriteString(types.RoleAssistant)
	b.WriteByte('\n')
	return b.String(), []string{promptTurnEnd, promptTurnStart}
}
