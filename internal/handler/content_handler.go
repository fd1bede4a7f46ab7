package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpdock/helpdock/internal/normalizer"
	"github.com/helpdock/helpdock/internal/pkg/response"
	"github.com/helpdock/helpdock/internal/service"
)

// ContentHandler exposes the knowledge base management surface: list sources,
// add a URL or a document, remove a source.
type ContentHandler struct {
	ingest  *service.IngestService
	content *service.ContentService
}

func NewContentHandler(ingest *service.IngestService, content *service.ContentService) *ContentHandler {
	return &ContentHandler{ingest: ingest, content: content}
}

func (h *ContentHandler) List(c *gin.Context) {
	items, err := h.content.ListItems(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

type createURLRequest struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (h *ContentHandler) CreateURL(c *gin.Context) {
	var req createURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := h.ingest.IngestURL(c.Request.Context(), req.URL, req.Description)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, item)
}

func (h *ContentHandler) UploadDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "file is required")
		return
	}
	if file.Size > normalizer.MaxFileBytes {
		response.Error(c, http.StatusBadRequest, "file too large")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(io.LimitReader(opened, normalizer.MaxFileBytes+1))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to read file")
		return
	}

	item, err := h.ingest.IngestDocument(
		c.Request.Context(),
		data,
		file.Header.Get("Content-Type"),
		file.Filename,
		c.PostForm("description"),
	)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"id":          item.ID,
		"filename":    item.Filename,
		"description": item.Description,
		"chunks":      item.ChunkCount,
	})
}

type deleteRequest struct {
	ID string `json:"id"`
}

func (h *ContentHandler) Delete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.content.DeleteItem(c.Request.Context(), req.ID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}
