// Package chunking splits long FAQ answers into overlapping windows small
// enough to embed as individual records.
package chunking

import "strings"

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split cuts text into chunks of at most ChunkSize runes with Overlap runes
// shared between neighbours. Cut points snap back to the nearest word
// boundary when one exists in the tail of the window, so a chunk never ends
// mid-word unless the text has no spaces at all.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		} else {
			end = snapToBoundary(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - s.Overlap
		if next > start {
			next = snapToWordStart(runes, start, next)
		}
		if next <= start {
			next = start + step
		}
		start = next
	}
	return out
}

// snapToBoundary moves a cut point back to the last space in the final
// quarter of the window. A window without a late space is cut as-is.
// snapToWordStart moves a resume position onto the start of a word, so the
// overlap region never begins with a word fragment. When no boundary exists
// between start and pos the caller falls back to a hard cut.
func snapToWordStart(runes []rune, start, pos int) int {
	i := pos
	for i > start && !isBreak(runes[i]) {
		i--
	}
	for i < len(runes) && isBreak(runes[i]) {
		i++
	}
	if i <= start {
		return start
	}
	return i
}

func isBreak(r rune) bool {
	return r == ' ' || r == '\n'
}

func snapToBoundary(runes []rune, start, end int) int {
	earliest := end - (end-start)/4
	for i := end - 1; i >= earliest; i-- {
		if isBreak(runes[i]) {
			return i
		}
	}
	return end
}
