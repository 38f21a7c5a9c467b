package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "", Preview("hello", 0))
	assert.Equal(t, "hel…", Preview("hello", 3))
	assert.Equal(t, "hello", Preview("hello", 5))
	assert.Equal(t, "hello", Preview("hello", 10))
	assert.Equal(t, "при…", Preview("привет", 3))
}

func TestTempUploadName(t *testing.T) {
	a := TempUploadName("../../etc/faq.PDF")
	b := TempUploadName("faq.pdf")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".pdf"))
	assert.NotContains(t, a, "/")
	assert.NotContains(t, a, "..")
}

func TestTempUploadName_NoExtension(t *testing.T) {
	assert.NotContains(t, TempUploadName("faq"), ".")
}
