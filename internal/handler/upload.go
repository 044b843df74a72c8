package handler

import (
    "context"  // deadlines and cancellation
    "io"       // stream helpers
    "net/http" // HTTP status codes and cookies
    "strings"  // string manipulation utilities
    "time"     // timeouts and clocks

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/cms-auth/internal/storage" // S3 blob store
)

// maxUploadSize caps a single media upload.
const maxUploadSize = 10 << 20

var allowedUploadTypes = map[string]bool{
    "image/png":       true,
    "image/jpeg":      true,
    "image/gif":       true,
    "image/webp":      true,
    "application/pdf": true,
}

// BlobStore stores uploaded files.  *storage.S3Store implements it.
type BlobStore interface {
    Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// UploadHandler accepts media uploads from the dashboard.
type UploadHandler struct {
    Blobs BlobStore // nil when object storage is not configured
    now   func() time.Time
}

func NewUploadHandler(blobs BlobStore) *UploadHandler {
    return &UploadHandler{Blobs: blobs, now: time.Now}
}

// Upload stores the multipart field "file" and returns its URL.  The content
// type is sniffed from the bytes, not taken from the client.
func (h *UploadHandler) Upload(c echo.Context) error {
    if h.Blobs == nil {
        return fail(c, http.StatusServiceUnavailable, "Uploads are not configured")
    }
    fh, err := c.FormFile("file")
    if err != nil {
        return fail(c, http.StatusBadRequest, "Missing file")
    }
    if fh.Size <= 0 || fh.Size > maxUploadSize {
        return fail(c, http.StatusRequestEntityTooLarge, "File is empty or too large")
    }
    f, err := fh.Open()
    if err != nil {
        return internalError(c, "upload.open", err)
    }
    defer f.Close()

    head := make([]byte, 512)
    n, err := io.ReadFull(f, head)
    if err != nil && err != io.ErrUnexpectedEOF {
        return internalError(c, "upload.read", err)
    }
    contentType := strings.TrimSpace(strings.Split(http.DetectContentType(head[:n]), ";")[0])
    if !allowedUploadTypes[contentType] {
        return fail(c, http.StatusUnsupportedMediaType, "Unsupported file type")
    }
    if _, err := f.Seek(0, io.SeekStart); err != nil {
        return internalError(c, "upload.seek", err)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()

    key := storage.ObjectKey(fh.Filename, h.now().UTC())
    url, err := h.Blobs.Upload(ctx, key, f, fh.Size, contentType)
    if err != nil {
        return internalError(c, "upload.put", err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "url": url, "key": key})
}
