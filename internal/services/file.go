package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"sayit/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var allowedUploadTypes = setOf(
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
)

func setOf(values ...string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}

type FileStorageConfig struct {
	BaseURL   string
	APIKey    string
	PublicURL string
	MaxSize   int64
	MaxFiles  int
	Timeout   time.Duration
}

// FileService forwards uploads to the external object store. Objects are
// keyed by a generated uuid; the original file name is kept only as metadata.
type FileService struct {
	client    *resty.Client
	publicURL string
	maxSize   int64
	maxFiles  int
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewFileService(cfg FileStorageConfig, log logrus.FieldLogger) *FileService {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = cfg.BaseURL
	}

	return &FileService{
		client:    client,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxSize:   cfg.MaxSize,
		maxFiles:  cfg.MaxFiles,
		log:       log,
		now:       time.Now,
	}
}

// Configured is false when no storage endpoint was set.
func (s *FileService) Configured() bool {
	return s.client.BaseURL != ""
}

type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload validates the whole batch first, then stores each file.
func (s *FileService) Upload(ctx context.Context, files []UploadFile) ([]models.Attachment, error) {
	if len(files) == 0 {
		return nil, models.FieldError("files", "at least one file is required")
	}
	if s.maxFiles > 0 && len(files) > s.maxFiles {
		return nil, models.FieldError("files", fmt.Sprintf("at most %d files per upload", s.maxFiles))
	}
	for _, f := range files {
		if s.maxSize > 0 && f.Size > s.maxSize {
			return nil, models.FieldError("files", fmt.Sprintf("%s exceeds the %d byte limit", f.Name, s.maxSize))
		}
		if !allowedUploadTypes[baseContentType(f.ContentType)] {
			return nil, models.FieldError("files", fmt.Sprintf("%s has unsupported type %q", f.Name, f.ContentType))
		}
	}
	if !s.Configured() {
		return nil, fmt.Errorf("object storage is not configured: %w", models.ErrUpstream)
	}

	attachments := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		att, err := s.put(ctx, f)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, att)
	}
	return attachments, nil
}

func (s *FileService) put(ctx context.Context, f UploadFile) (models.Attachment, error) {
	key := objectKey(f.Name)
	// buffered so resty can replay the body on retry
	data, err := io.ReadAll(f.Body)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return models.Attachment{}, models.FieldError("files", fmt.Sprintf("%s exceeds the %d byte limit", f.Name, s.maxSize))
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", baseContentType(f.ContentType)).
		SetBody(data).
		Put("/" + key)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("upload %s: %v: %w", f.Name, err, models.ErrUpstream)
	}
	if resp.IsError() {
		s.log.WithFields(logrus.Fields{
			"key":    key,
			"status": resp.StatusCode(),
		}).Warn("object storage rejected upload")
		return models.Attachment{}, fmt.Errorf("upload %s: storage returned %d: %w", f.Name, resp.StatusCode(), models.ErrUpstream)
	}

	return models.Attachment{
		Key:         key,
		URL:         s.publicURL + "/" + key,
		Name:        filepath.Base(f.Name),
		ContentType: baseContentType(f.ContentType),
		Size:        int64(len(data)),
		UploadedAt:  s.now(),
	}, nil
}

// Adopt accepts attachment metadata a client echoes back from Upload. Only
// keys this service issues are accepted and the URL is rebuilt from the key.
func (s *FileService) Adopt(attachments []models.Attachment) ([]models.Attachment, error) {
	if s.maxFiles > 0 && len(attachments) > s.maxFiles {
		return nil, models.FieldError("attachments", fmt.Sprintf("at most %d files per complaint or response", s.maxFiles))
	}
	out := make([]models.Attachment, 0, len(attachments))
	for i, a := range attachments {
		if !validObjectKey(a.Key) {
			return nil, models.FieldError(fmt.Sprintf("attachments[%d].key", i), "must be a key returned by the upload endpoint")
		}
		a.URL = s.publicURL + "/" + a.Key
		a.Name = filepath.Base(a.Name)
		a.ContentType = baseContentType(a.ContentType)
		if a.UploadedAt.IsZero() {
			a.UploadedAt = s.now()
		}
		out = append(out, a)
	}
	return out, nil
}

const objectPrefix = "complaints/"

var objectExt = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

func objectKey(name string) string {
	ext := strings.ToLower(path.Ext(filepath.Base(name)))
	if !objectExt.MatchString(ext) {
		ext = ""
	}
	return objectPrefix + uuid.NewString() + ext
}

func validObjectKey(key string) bool {
	rest, ok := strings.CutPrefix(key, objectPrefix)
	if !ok {
		return false
	}
	id, ext := rest, ""
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		id, ext = rest[:i], rest[i:]
	}
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		return false
	}
	return ext == "" || objectExt.MatchString(ext)
}

func baseContentType(ct string) string {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
