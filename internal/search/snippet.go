package search

import "strings"

// ContextWindow returns the half-open line range [start, end) shown around
// the zero based line index. The window holds size lines when the file has
// that many, begins size/2 lines before the match, and slides back from the
// end of the file instead of shrinking.
func ContextWindow(index, total, size int) (start, end int) {
	if size >= total {
		return 0, total
	}

	start = max(0, index-size/2)
	end = start + size
	if end > total {
		return total - size, total
	}
	return start, end
}

// Snippet renders the context window of a match with the matched span of the
// matching line wrapped in the engine markers. start and end are character
// offsets into lines[index].
func (e *Engine) Snippet(lines []string, index, start, end, size int) string {
	from, to := ContextWindow(index, len(lines), size)

	var b strings.Builder
	for i := from; i < to; i++ {
		if i > from {
			b.WriteByte('\n')
		}
		if i != index {
			b.WriteString(lines[i])
			continue
		}
		b.WriteString(e.mark(lines[i], start, end))
	}
	return b.String()
}

func (e *Engine) mark(line string, start, end int) string {
	runes := []rune(line)
	start = min(max(start, 0), len(runes))
	end = min(max(end, start), len(runes))
	return string(runes[:start]) + e.begin + string(runes[start:end]) + e.end + string(runes[end:])
}
