package service

import (
	"fmt"
	"strings"

	"github.com/katakuxiko/faqbot/internal/model"
)

// splitPassages cuts text into word windows of size words, each starting
// size-overlap words after the previous one. The last window always ends
// at the final word.
func splitPassages(docName, text string, size, overlap int) []model.Chunk {
	if size <= 0 {
		size = 200
	}
	step := size - max(overlap, 0)
	if step < 1 {
		step = 1
	}

	words := strings.Fields(text)
	var chunks []model.Chunk
	for start := 0; start < len(words); start += step {
		end := min(start+size, len(words))
		chunks = append(chunks, model.Chunk{
			ID:   fmt.Sprintf("%s_chunk_%d", docName, len(chunks)),
			Text: strings.Join(words[start:end], " "),
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}
