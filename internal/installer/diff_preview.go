package installer

import (
	"fmt"
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/conn-castle/package-console/internal/messages"
)

// DefaultDiffMaxLines is the maximum number of diff lines shown in a conflict message.
const DefaultDiffMaxLines = 40

func normalizeDiffMaxLines(value int) int {
	if value <= 0 {
		return DefaultDiffMaxLines
	}
	return value
}

// conflictMessage renders the prompt body for a differing existing file.
func conflictMessage(relPath string, project string, current string, incoming string, maxLines int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(messages.ConflictMessageFmt, relPath, project))
	diff := renderTruncatedUnifiedDiff(relPath+" (current)", relPath+" (package)", current, incoming, maxLines)
	if diff != "" {
		b.WriteString("\n\n")
		b.WriteString(diff)
	}
	return b.String()
}

func renderTruncatedUnifiedDiff(fromName string, toName string, fromContent string, toContent string, maxLines int) string {
	limit := normalizeDiffMaxLines(maxLines)
	lines := splitDiffLines(udiff.Unified(fromName, toName, fromContent, toContent))
	if len(lines) <= limit {
		return ensureTrailingNewline(strings.Join(lines, "\n"))
	}
	truncated := append(lines[:limit:limit], fmt.Sprintf(messages.ConflictDiffTruncatedFmt, len(lines)-limit))
	return ensureTrailingNewline(strings.Join(truncated, "\n"))
}

func splitDiffLines(content string) []string {
	trimmed := strings.TrimRight(content, "\n")
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "\n")
}

func ensureTrailingNewline(content string) string {
	if content == "" || strings.HasSuffix(content, "\n") {
		return content
	}
	return content + "\n"
}
