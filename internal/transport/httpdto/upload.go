package httpdto

// CreateUploadRequest is used for POST /uploads
type CreateUploadRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	FileSize    int64  `json:"file_size" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// CreateUploadResponse is returned after creating a presigned upload
type CreateUploadResponse struct {
	UploadURL     string            `json:"upload_url"`
	Headers       map[string]string `json:"headers,omitempty"`
	AttachmentURL string            `json:"attachment_url"`
}
