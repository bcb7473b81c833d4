// Package text contains plain-text helpers for chunking long transcripts and
// scanning generated markdown.
package text

import "strings"

// Chunk splits s into rune-based windows of chunkSize with overlap runes of
// shared context at each boundary. Text at or under chunkSize comes back as a
// single chunk equal to the input. Dropping the first overlap runes of every
// chunk after the first reconstructs the input exactly.
func Chunk(s string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return []string{s}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}

	runes := []rune(s)
	if len(runes) <= chunkSize {
		return []string{s}
	}

	var chunks []string
	for start := 0; start < len(runes); start += chunkSize - overlap {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// Outline returns the second-level heading titles of a markdown document, in
// document order.
func Outline(markdown string) []string {
	var outline []string
	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(line, "## ") {
			outline = append(outline, strings.TrimSpace(strings.TrimLeft(line, "#")))
		}
	}
	return outline
}

// Truncate shortens s to at most max runes, appending "..." when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
