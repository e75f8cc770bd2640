package handlers

import (
	"fmt"
	"io"
	"mime/multipart"

	"agency-backend/internal/services"
)

// maxFileSize caps both each individual upload and the aggregate of one
// request.
const maxFileSize = 25 << 20 // 25MB

// readUploads drains the multipart file headers into memory, enforcing
// the per-file and aggregate size caps. MIME type comes from the part
// header with a binary fallback.
func readUploads(headers []*multipart.FileHeader) ([]services.StagedUpload, error) {
	var total int64
	uploads := make([]services.StagedUpload, 0, len(headers))

	for _, fh := range headers {
		if fh.Size > maxFileSize {
			return nil, fmt.Errorf("file %s exceeds the 25MB limit", fh.Filename)
		}
		total += fh.Size
		if total > maxFileSize {
			return nil, fmt.Errorf("combined upload size exceeds the 25MB limit")
		}

		src, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}

		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		uploads = append(uploads, services.StagedUpload{
			Name:     fh.Filename,
			MimeType: mimeType,
			Data:     data,
		})
	}
	return uploads, nil
}
