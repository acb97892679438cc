package handlers

import (
	"context"
	"mime/multipart"
	"net/http"

	"sayit/internal/models"
	"sayit/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const multipartField = "files"

type FileAPI interface {
	Upload(ctx context.Context, files []services.UploadFile) ([]models.Attachment, error)
	Adopt(attachments []models.Attachment) ([]models.Attachment, error)
}

type FileHandler struct {
	files FileAPI
	log   logrus.FieldLogger
}

func NewFileHandler(files FileAPI, log logrus.FieldLogger) *FileHandler {
	return &FileHandler{files: files, log: log}
}

// Upload stores files ahead of complaint submission; the returned attachments
// go into the create request.
func (h *FileHandler) Upload(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	attachments, ok := uploadFromForm(ctx, c, h.files, h.log)
	if !ok {
		return
	}
	respond(c, http.StatusCreated, attachments)
}

// uploadFromForm reads the "files" parts and hands them to storage. It writes
// the error response itself and reports false on failure.
func uploadFromForm(ctx context.Context, c *gin.Context, files FileAPI, log logrus.FieldLogger) ([]models.Attachment, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, multipartField, "must be a multipart form")
		return nil, false
	}
	headers := form.File[multipartField]
	if len(headers) == 0 {
		badRequest(c, multipartField, "at least one file is required")
		return nil, false
	}

	uploads := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			badRequest(c, multipartField, "could not read "+fh.Filename)
			return nil, false
		}
		defer f.Close()
		uploads = append(uploads, uploadFile(fh, f))
	}

	attachments, err := files.Upload(ctx, uploads)
	if err != nil {
		respondError(c, log, err)
		return nil, false
	}
	return attachments, true
}

func uploadFile(fh *multipart.FileHeader, f multipart.File) services.UploadFile {
	return services.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}
}
