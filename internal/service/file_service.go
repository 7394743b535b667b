package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fixpoint-as/repair-api/internal/auth"
	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/fixpoint-as/repair-api/internal/mapper"
	"github.com/fixpoint-as/repair-api/internal/repository"
	"github.com/fixpoint-as/repair-api/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Content types accepted for lead attachments. Intake photos plus PDFs for
// signed repair authorizations.
var allowedAttachmentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/heic":      true,
	"application/pdf": true,
}

type FileService struct {
	attachmentRepo *repository.AttachmentRepository
	leadRepo       *repository.LeadRepository
	store          storage.Storage
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewFileService(
	attachmentRepo *repository.AttachmentRepository,
	leadRepo *repository.LeadRepository,
	store storage.Storage,
	maxUploadSizeMB int64,
	logger *zap.Logger,
) *FileService {
	return &FileService{
		attachmentRepo: attachmentRepo,
		leadRepo:       leadRepo,
		store:          store,
		maxUploadBytes: maxUploadSizeMB * 1024 * 1024,
		logger:         logger,
	}
}

// Upload stores a file for a lead and records its metadata
func (s *FileService) Upload(ctx context.Context, leadID uuid.UUID, filename, contentType string, data io.Reader) (*domain.LeadAttachmentDTO, error) {
	if !allowedAttachmentTypes[strings.ToLower(contentType)] {
		return nil, fmt.Errorf("%w: content type %q not allowed", ErrInvalidInput, contentType)
	}

	if _, err := s.leadRepo.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	staffCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	limited := io.LimitReader(data, s.maxUploadBytes+1)
	storagePath, size, err := s.store.Upload(ctx, filename, contentType, limited)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	if size > s.maxUploadBytes {
		if delErr := s.store.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to remove oversized upload", zap.Error(delErr))
		}
		return nil, fmt.Errorf("%w: file exceeds %d MB limit",
			ErrInvalidInput, s.maxUploadBytes/(1024*1024))
	}

	attachment := &domain.LeadAttachment{
		LeadID:      leadID,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		StoragePath: storagePath,
		UploadedBy:  staffCtx.StaffID,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		// Metadata write failed, clean up the orphaned file
		if delErr := s.store.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to record attachment: %w", err)
	}

	dto := mapper.ToLeadAttachmentDTO(attachment)
	return &dto, nil
}

// Download streams an attachment's content. The caller owns closing the reader.
func (s *FileService) Download(ctx context.Context, id uuid.UUID) (*domain.LeadAttachment, io.ReadCloser, error) {
	attachment, err := s.attachmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	reader, err := s.store.Download(ctx, attachment.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return attachment, reader, nil
}

// ListByLead returns attachment metadata for a lead
func (s *FileService) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.LeadAttachmentDTO, error) {
	attachments, err := s.attachmentRepo.ListByLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	dtos := make([]domain.LeadAttachmentDTO, len(attachments))
	for i := range attachments {
		dtos[i] = mapper.ToLeadAttachmentDTO(&attachments[i])
	}
	return dtos, nil
}

// Delete removes an attachment and its stored file
func (s *FileService) Delete(ctx context.Context, id uuid.UUID) error {
	attachment, err := s.attachmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get attachment: %w", err)
	}

	if err := s.attachmentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	if err := s.store.Delete(ctx, attachment.StoragePath); err != nil {
		s.logger.Warn("attachment record deleted but file removal failed",
			zap.String("storage_path", attachment.StoragePath),
			zap.Error(err))
	}

	return nil
}
