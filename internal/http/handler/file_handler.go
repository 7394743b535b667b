package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/fixpoint-as/repair-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FileHandler struct {
	fileService *service.FileService
	logger      *zap.Logger
}

func NewFileHandler(fileService *service.FileService, logger *zap.Logger) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		logger:      logger,
	}
}

// @Summary Upload attachment
// @Description Upload a device photo or document for a lead (multipart form, field "file")
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Lead ID"
// @Param file formData file true "File to upload"
// @Success 201 {object} domain.LeadAttachmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/attachments [post]
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	leadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")

	attachment, err := h.fileService.Upload(r.Context(), leadID, header.Filename, contentType, file)
	if err != nil {
		h.logger.Error("failed to upload attachment",
			zap.String("lead_id", leadID.String()),
			zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, attachment)
}

// @Summary List attachments
// @Description List attachment metadata for a lead
// @Tags Files
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {array} domain.LeadAttachmentDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/attachments [get]
func (h *FileHandler) ListByLead(w http.ResponseWriter, r *http.Request) {
	leadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	attachments, err := h.fileService.ListByLead(r.Context(), leadID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, attachments)
}

// @Summary Download attachment
// @Description Stream an attachment's content
// @Tags Files
// @Produce octet-stream
// @Param id path string true "Attachment ID"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /attachments/{id} [get]
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid attachment id")
		return
	}

	attachment, reader, err := h.fileService.Download(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", attachment.Filename))
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("attachment stream interrupted",
			zap.String("id", id.String()),
			zap.Error(err))
	}
}

// @Summary Delete attachment
// @Description Delete an attachment and its stored file
// @Tags Files
// @Param id path string true "Attachment ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /attachments/{id} [delete]
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid attachment id")
		return
	}

	if err := h.fileService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
