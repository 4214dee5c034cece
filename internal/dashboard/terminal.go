package dashboard

// TerminalLog is the append-only console pane. With maxLines of zero it
// grows without bound; otherwise the oldest lines are dropped.
type TerminalLog struct {
	maxLines int
	lines    []string
}

func NewTerminalLog(maxLines int) *TerminalLog {
	if maxLines < 0 {
		maxLines = 0
	}
	return &TerminalLog{maxLines: maxLines}
}

// Append adds line at the bottom and returns how many lines were dropped.
func (t *TerminalLog) Append(line string) int {
	t.lines = append(t.lines, line)
	if t.maxLines == 0 || len(t.lines) <= t.maxLines {
		return 0
	}

	dropped := len(t.lines) - t.maxLines
	kept := make([]string, t.maxLines)
	copy(kept, t.lines[dropped:])
	t.lines = kept
	return dropped
}

func (t *TerminalLog) Len() int {
	return len(t.lines)
}

// Lines returns the lines, oldest first. Lines are only ever appended or
// moved to a fresh slice, so the result stays valid after later appends; the
// caller must not modify it.
func (t *TerminalLog) Lines() []string {
	return t.lines[:len(t.lines):len(t.lines)]
}
