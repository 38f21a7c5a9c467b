package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2/log"

	"github.com/katakuxiko/faqbot/internal/model"
	"github.com/katakuxiko/faqbot/internal/pdf"
	"github.com/katakuxiko/faqbot/internal/store"
	"github.com/katakuxiko/faqbot/internal/util"
)

// Extractor turns a document file into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (text string, pages int, err error)
}

type IngestOptions struct {
	UploadDir    string
	Index        store.PassageIndex
	ChunkSize    int
	ChunkOverlap int
}

// Ingestor turns an uploaded file into the current reference document.
type Ingestor struct {
	docs      *store.DocumentStore
	extractor Extractor
	opts      IngestOptions

	// commit keeps the store and the index on the same upload.
	commit sync.Mutex
}

func NewIngestor(docs *store.DocumentStore, extractor Extractor, opts IngestOptions) *Ingestor {
	if opts.UploadDir == "" {
		opts.UploadDir = os.TempDir()
	}
	return &Ingestor{docs: docs, extractor: extractor, opts: opts}
}

// Ingest copies the upload to a temporary file, extracts its text and, on
// success, replaces the current document. The temporary file is removed on
// every path. The store is untouched when extraction or clearing the
// passage index fails.
func (in *Ingestor) Ingest(ctx context.Context, fh *multipart.FileHeader) (model.UploadResult, error) {
	if fh == nil {
		return model.UploadResult{}, ErrUploadMissing
	}
	if !pdf.IsPDF(fh.Filename) {
		log.Warnf("upload %q has no .pdf extension, trying anyway", fh.Filename)
	}

	path, err := in.saveTemp(fh)
	if path != "" {
		defer func() {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Warnf("remove temp upload %s: %v", path, rmErr)
			}
		}()
	}
	if err != nil {
		return model.UploadResult{}, fmt.Errorf("save upload: %w", err)
	}

	text, pages, err := in.extractor.ExtractText(ctx, path)
	if err != nil {
		return model.UploadResult{}, err
	}

	res := model.UploadResult{
		Filename:   filepath.Base(fh.Filename),
		Pages:      pages,
		Characters: utf8.RuneCountInString(text),
	}

	in.commit.Lock()
	defer in.commit.Unlock()

	// Drop the old passages first so no question about the new text is
	// grounded in the previous upload while the index is rebuilt.
	if in.opts.Index != nil {
		if err := in.opts.Index.Reset(ctx, nil); err != nil {
			return model.UploadResult{}, fmt.Errorf("clear passage index: %w", err)
		}
	}

	in.docs.Replace(text)
	log.Infof("FAQ content updated: %s, %d pages, %d chars", res.Filename, pages, len(text))

	if in.opts.Index != nil {
		chunks := splitPassages(res.Filename, text, in.opts.ChunkSize, in.opts.ChunkOverlap)
		if err := in.opts.Index.Reset(ctx, chunks); err != nil {
			log.Errorf("index passages, answering from the full document: %v", err)
		} else {
			res.Passages = len(chunks)
		}
	}
	return res, nil
}

func (in *Ingestor) saveTemp(fh *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(in.opts.UploadDir, 0o755); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	path := filepath.Join(in.opts.UploadDir, util.TempUploadName(fh.Filename))
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return path, err
	}
	return path, dst.Close()
}
