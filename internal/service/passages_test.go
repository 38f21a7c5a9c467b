package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPassages(t *testing.T) {
	chunks := splitPassages("faq.pdf", strings.Repeat("w ", 10), 4, 1)
	require.Len(t, chunks, 3)
	assert.Equal(t, "faq.pdf_chunk_0", chunks[0].ID)
	assert.Equal(t, "w w w w", chunks[0].Text)
	assert.Equal(t, "faq.pdf_chunk_2", chunks[2].ID)
	assert.Equal(t, "w w w w", chunks[2].Text)
}

func TestSplitPassages_Edges(t *testing.T) {
	assert.Empty(t, splitPassages("d", "   ", 4, 1))
	assert.Len(t, splitPassages("d", "a b c", 10, 2), 1)

	// overlap >= size still advances one word at a time
	chunks := splitPassages("d", "a b c", 2, 5)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a b", chunks[0].Text)
	assert.Equal(t, "b c", chunks[1].Text)
}
