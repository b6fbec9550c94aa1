package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dream-ai/ragchat/internal/app"
	"github.com/dream-ai/ragchat/internal/chat"
	"github.com/dream-ai/ragchat/internal/documents"
	"github.com/labstack/echo/v4"
)

// IngestRequest asks for a PDF on the server's filesystem to be indexed
type IngestRequest struct {
	PDFPath string `json:"pdf_path"`
}

// IngestResponse reports the ingestion outcome
type IngestResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Chunks  int    `json:"chunks"`
}

// ChatRequest carries one user message
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the bot reply
type ChatResponse struct {
	Response string `json:"response"`
}

// StatusResponse is a generic acknowledgement
type StatusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// HealthResponse reports subsystem availability
type HealthResponse struct {
	Status   string          `json:"status"`
	Services map[string]bool `json:"services"`
}

func (s *Server) handleRoot(c echo.Context) error {
	if path, ok := s.indexFile(); ok {
		return c.File(path)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "RAG chatbot API is running",
		"status":  "ok",
		"docs":    "POST /api/chat, POST /api/ingest, POST /api/clear-chat, GET /health",
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
		Services: map[string]bool{
			app.VectorDB: s.services.Index.Ready(),
			app.Database: s.services.History.Ready(),
			app.Chatbot:  s.services.Generator.Ready(),
		},
	})
}

func (s *Server) handleIngest(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.PDFPath) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "pdf_path is required")
	}

	res, err := s.services.Ingest(c.Request().Context(), req.PDFPath)
	switch {
	case errors.Is(err, app.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error()).SetInternal(err)
	case errors.Is(err, documents.ErrDocumentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "PDF file not found: "+req.PDFPath).SetInternal(err)
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}

	msg := "PDF processed successfully"
	if res.Status == documents.StatusSkipped {
		msg = "PDF already processed, skipping"
	}
	return c.JSON(http.StatusOK, IngestResponse{Message: msg, Status: string(res.Status), Chunks: res.Chunks})
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, chat.ErrEmptyMessage.Error())
	}

	svc, err := s.services.Chat()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error()).SetInternal(err)
	}

	reply, err := svc.Reply(c.Request().Context(), s.services.UserID, req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, ChatResponse{Response: reply})
}

func (s *Server) handleClearChat(c echo.Context) error {
	store, err := s.services.History.Get()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error()).SetInternal(err)
	}
	if err := store.Clear(c.Request().Context(), s.services.UserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, StatusResponse{Message: "Chat history cleared", Status: "success"})
}
