package api

import (
	"errors"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/katakuxiko/faqbot/internal/model"
	"github.com/katakuxiko/faqbot/internal/pdf"
	"github.com/katakuxiko/faqbot/internal/service"
	"github.com/katakuxiko/faqbot/internal/store"
)

type Handler struct {
	rag    *service.Orchestrator
	ingest *service.Ingestor
	docs   *store.DocumentStore
}

func NewHandler(rag *service.Orchestrator, ingest *service.Ingestor, docs *store.DocumentStore) *Handler {
	return &Handler{rag: rag, ingest: ingest, docs: docs}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.SendString("ok")
}

// Status reports whether a document is loaded, without its content.
func (h *Handler) Status(c *fiber.Ctx) error {
	doc := h.docs.Current()
	return c.JSON(model.DocumentStatus{
		Populated:  doc != "",
		Characters: utf8.RuneCountInString(doc),
	})
}

func (h *Handler) UploadFAQ(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		log.Warnf("no file uploaded: %v", err)
		return fail(c, service.ErrUploadMissing)
	}

	res, err := h.ingest.Ingest(c.UserContext(), file)
	if err != nil {
		log.Errorf("ingest %s: %v", file.Filename, err)
		return fail(c, err)
	}

	log.Infof("upload ok: %+v", res)
	return c.SendString("FAQ uploaded and parsed successfully.")
}

func (h *Handler) Chat(c *fiber.Ctx) error {
	var req model.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(`Invalid request, expected JSON: {"message":"..."}`)
	}

	reply, err := h.rag.Answer(c.UserContext(), req.Message, req.History)
	if err != nil {
		log.Errorf("chat: %v", err)
		return fail(c, err)
	}
	return c.JSON(model.ChatResponse{Reply: reply})
}

func fail(c *fiber.Ctx, err error) error {
	code, msg := statusFor(err)
	return c.Status(code).SendString(msg)
}

// statusFor maps service errors to an HTTP status and a message safe to
// show the client.
func statusFor(err error) (int, string) {
	var exErr *pdf.ExtractionError
	var pErr *service.ProviderError

	switch {
	case errors.Is(err, service.ErrUploadMissing):
		return fiber.StatusBadRequest, "No file uploaded."
	case errors.Is(err, service.ErrNotReady):
		return fiber.StatusBadRequest, "FAQ has not been uploaded yet."
	case errors.Is(err, service.ErrEmptyQuestion):
		return fiber.StatusBadRequest, "Message must not be empty."
	case errors.As(err, &exErr):
		return fiber.StatusInternalServerError, "Error parsing PDF: " + exErr.Error()
	case errors.As(err, &pErr):
		return fiber.StatusInternalServerError, "Error generating response: " + pErr.Err.Error()
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}
