package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"linkup-chat/internal/storage"
	chat_errors "linkup-chat/pkg/errors"
)

// UploadService hands out presigned PUT URLs for message attachments. The
// client uploads directly to object storage and sends the resulting public
// URL as the message's attachment.
type UploadService struct {
	storage *storage.Client
}

func NewUploadService(st *storage.Client) *UploadService {
	return &UploadService{storage: st}
}

type PresignInput struct {
	UploaderID  uuid.UUID
	FileName    string
	ContentType string
	FileSize    int64
}

type PresignResult struct {
	UploadURL     string            `json:"upload_url"`
	Headers       map[string]string `json:"headers,omitempty"`
	AttachmentURL string            `json:"attachment_url"`
}

const maxAttachmentBytes = 25 << 20

func (s *UploadService) CreatePresignedUpload(ctx context.Context, in PresignInput) (PresignResult, error) {
	if s.storage == nil {
		return PresignResult{}, errors.New("s3 storage is not configured")
	}
	if in.UploaderID == uuid.Nil || in.FileName == "" || in.ContentType == "" || in.FileSize <= 0 {
		return PresignResult{}, chat_errors.ErrInvalidInput
	}
	if in.FileSize > maxAttachmentBytes {
		return PresignResult{}, chat_errors.ErrInvalidInput
	}
	if err := s.storage.ValidateContentType(in.ContentType); err != nil {
		return PresignResult{}, chat_errors.ErrInvalidInput
	}

	key := fmt.Sprintf("attachments/%s/%s/%s%s",
		in.UploaderID, time.Now().UTC().Format("2006/01/02"), uuid.New(), path.Ext(in.FileName))

	uploadURL, headers, err := s.storage.PresignPut(ctx, key, in.ContentType, in.FileSize)
	if err != nil {
		return PresignResult{}, err
	}

	return PresignResult{
		UploadURL:     uploadURL,
		Headers:       headers,
		AttachmentURL: s.storage.FileURL(key),
	}, nil
}
