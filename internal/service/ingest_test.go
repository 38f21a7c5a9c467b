package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katakuxiko/faqbot/internal/model"
	"github.com/katakuxiko/faqbot/internal/pdf"
	"github.com/katakuxiko/faqbot/internal/store"
)

// fakeExtractor checks that the temp file exists while it runs.
type fakeExtractor struct {
	text     string
	err      error
	seenPath string
	seenData []byte
}

func (f *fakeExtractor) ExtractText(_ context.Context, path string) (string, int, error) {
	f.seenPath = path
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, err
	}
	f.seenData = data
	if f.err != nil {
		return "", 0, f.err
	}
	return f.text, 1, nil
}

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary upload left behind")
}

func TestIngest_ReplacesStoreAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	docs := store.NewDocumentStore()
	ex := &fakeExtractor{text: "Store hours: 9am-5pm."}
	in := NewIngestor(docs, ex, IngestOptions{UploadDir: dir})

	res, err := in.Ingest(context.Background(), fileHeader(t, "faq.pdf", []byte("%PDF-fake")))
	require.NoError(t, err)

	assert.Equal(t, "Store hours: 9am-5pm.", docs.Current())
	assert.Equal(t, "faq.pdf", res.Filename)
	assert.Equal(t, len("Store hours: 9am-5pm."), res.Characters)
	assert.Equal(t, []byte("%PDF-fake"), ex.seenData)
	assert.NoFileExists(t, ex.seenPath)
	assertDirEmpty(t, dir)
}

func TestIngest_ExtractionFailureKeepsStore(t *testing.T) {
	dir := t.TempDir()
	docs := store.NewDocumentStore()
	docs.Replace("previous FAQ")
	ex := &fakeExtractor{err: &pdf.ExtractionError{Err: errors.New("missing %PDF header")}}
	in := NewIngestor(docs, ex, IngestOptions{UploadDir: dir})

	_, err := in.Ingest(context.Background(), fileHeader(t, "broken.pdf", []byte("garbage")))

	var exErr *pdf.ExtractionError
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, "previous FAQ", docs.Current())
	assert.NoFileExists(t, ex.seenPath)
	assertDirEmpty(t, dir)
}

func TestIngest_RealExtractorOnCorruptedBytes(t *testing.T) {
	dir := t.TempDir()
	docs := store.NewDocumentStore()
	in := NewIngestor(docs, pdf.NewExtractor(), IngestOptions{UploadDir: dir})

	_, err := in.Ingest(context.Background(), fileHeader(t, "broken.pdf", []byte("\x00\x01not a pdf")))

	var exErr *pdf.ExtractionError
	require.True(t, errors.As(err, &exErr))
	assert.False(t, docs.Populated())
	assertDirEmpty(t, dir)
}

func TestIngest_MissingFile(t *testing.T) {
	docs := store.NewDocumentStore()
	docs.Replace("keep me")
	in := NewIngestor(docs, &fakeExtractor{}, IngestOptions{UploadDir: t.TempDir()})

	_, err := in.Ingest(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUploadMissing)
	assert.Equal(t, "keep me", docs.Current())
}

func TestIngest_CreatesUploadDir(t *testing.T) {
	dir := t.TempDir() + "/nested/uploads"
	in := NewIngestor(store.NewDocumentStore(), &fakeExtractor{text: "x"}, IngestOptions{UploadDir: dir})

	_, err := in.Ingest(context.Background(), fileHeader(t, "faq.pdf", []byte("data")))
	require.NoError(t, err)
	assertDirEmpty(t, dir)
}

type recordingIndex struct {
	chunks     []model.Chunk
	resets     int
	failed     bool
	clearFails bool
}

func (r *recordingIndex) Reset(_ context.Context, chunks []model.Chunk) error {
	r.resets++
	if r.clearFails && chunks == nil {
		return errors.New("database unreachable")
	}
	if r.failed && chunks != nil {
		return errors.New("embedding backend down")
	}
	r.chunks = chunks
	return nil
}

func (r *recordingIndex) Search(context.Context, string, int) ([]model.Chunk, error) {
	return r.chunks, nil
}

func TestIngest_IndexesPassages(t *testing.T) {
	idx := &recordingIndex{}
	in := NewIngestor(store.NewDocumentStore(), &fakeExtractor{text: "a b c d e f g"}, IngestOptions{
		UploadDir:    t.TempDir(),
		Index:        idx,
		ChunkSize:    3,
		ChunkOverlap: 1,
	})

	res, err := in.Ingest(context.Background(), fileHeader(t, "faq.pdf", []byte("data")))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Passages)
	require.Len(t, idx.chunks, 3)
	assert.Equal(t, "faq.pdf_chunk_0", idx.chunks[0].ID)
	assert.Equal(t, "a b c", idx.chunks[0].Text)
}

func TestIngest_IndexFailureClearsIndex(t *testing.T) {
	idx := &recordingIndex{chunks: []model.Chunk{{ID: "stale"}}, failed: true}
	docs := store.NewDocumentStore()
	in := NewIngestor(docs, &fakeExtractor{text: "new text"}, IngestOptions{UploadDir: t.TempDir(), Index: idx})

	res, err := in.Ingest(context.Background(), fileHeader(t, "faq.pdf", []byte("data")))
	require.NoError(t, err)

	assert.Equal(t, "new text", docs.Current())
	assert.Equal(t, 0, res.Passages)
	assert.Equal(t, 2, idx.resets)
	assert.Empty(t, idx.chunks)
}

func TestIngest_IndexClearFailureKeepsOldDocument(t *testing.T) {
	idx := &recordingIndex{clearFails: true}
	docs := store.NewDocumentStore()
	docs.Replace("old text")
	dir := t.TempDir()
	in := NewIngestor(docs, &fakeExtractor{text: "new text"}, IngestOptions{UploadDir: dir, Index: idx})

	_, err := in.Ingest(context.Background(), fileHeader(t, "faq.pdf", []byte("data")))
	require.Error(t, err)
	assert.Equal(t, "old text", docs.Current())
	assertDirEmpty(t, dir)
}

// gatedIndex blocks every non-empty Reset until release is closed.
type gatedIndex struct {
	*store.KeywordIndex
	gate    bool
	started chan struct{}
	release chan struct{}
}

func (g *gatedIndex) Reset(ctx context.Context, chunks []model.Chunk) error {
	if g.gate && chunks != nil {
		g.started <- struct{}{}
		<-g.release
	}
	return g.KeywordIndex.Reset(ctx, chunks)
}

func TestIngest_QuestionDuringReindexNeverSeesOldPassages(t *testing.T) {
	idx := &gatedIndex{
		KeywordIndex: store.NewKeywordIndex(),
		started:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
	docs := store.NewDocumentStore()
	in := NewIngestor(docs, &fakeExtractor{text: "old hours nine to five"}, IngestOptions{UploadDir: t.TempDir(), Index: idx})
	llm := &fakeProvider{reply: "ok"}
	rag := NewOrchestrator(docs, llm, Options{Instruction: instruction, Index: idx})
	ctx := context.Background()

	_, err := in.Ingest(ctx, fileHeader(t, "a.pdf", []byte("v1")))
	require.NoError(t, err)
	_, err = rag.Answer(ctx, "what are the hours?", nil)
	require.NoError(t, err)
	require.Contains(t, llm.lastCall()[0].Content, "[a.pdf_chunk_0]")

	idx.gate = true
	in.extractor = &fakeExtractor{text: "new hours ten to six"}
	done := make(chan error, 1)
	go func() {
		_, err := in.Ingest(ctx, fileHeader(t, "b.pdf", []byte("v2")))
		done <- err
	}()
	<-idx.started

	_, err = rag.Answer(ctx, "what are the hours?", nil)
	require.NoError(t, err)
	sys := llm.lastCall()[0].Content
	assert.Contains(t, sys, "new hours ten to six")
	assert.False(t, strings.Contains(sys, "old hours"), "grounded in the overwritten upload: %q", sys)

	close(idx.release)
	require.NoError(t, <-done)

	_, err = rag.Answer(ctx, "what are the hours?", nil)
	require.NoError(t, err)
	assert.Contains(t, llm.lastCall()[0].Content, "[b.pdf_chunk_0]\nnew hours ten to six")
}
