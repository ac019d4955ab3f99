package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/campus-appeals-api/internal/observability"
	"github.com/noah-isme/campus-appeals-api/pkg/storage"
)

const imagePrefix = "campus_env"

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ImageService validates and stores complaint photos.
type ImageService interface {
	Store(ctx context.Context, files []*multipart.FileHeader) ([]string, error)
	Discard(ctx context.Context, paths []string)
	Open(ctx context.Context, filename string) (io.ReadCloser, string, error)
}

type imageService struct {
	store    storage.Store
	logger   zerolog.Logger
	maxSize  int64
	maxFiles int
	tracer   trace.Tracer
}

type pendingImage struct {
	ext         string
	contentType string
	payload     []byte
}

// NewImageService constructs an image service over the given store.
func NewImageService(store storage.Store, maxSizeMB, maxFiles int, logger zerolog.Logger) ImageService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &imageService{
		store:    store,
		logger:   logger.With().Str("component", "image_service").Logger(),
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		maxFiles: maxFiles,
		tracer:   otel.Tracer("github.com/noah-isme/campus-appeals-api/internal/service/image"),
	}
}

// Store validates every file before writing any of them, then returns the
// stored paths in upload order.
func (s *imageService) Store(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}

	ctx, span := s.tracer.Start(ctx, "images.store", trace.WithAttributes(
		attribute.Int("images.count", len(files)),
		attribute.Int64("images.max_bytes", s.maxSize),
	))
	defer span.End()

	if len(files) > s.maxFiles {
		observability.UploadsRejected().WithLabelValues("count").Inc()
		span.SetStatus(codes.Error, "too many images")
		return nil, ErrTooManyImages
	}

	pending := make([]pendingImage, 0, len(files))
	for _, file := range files {
		image, err := s.read(file)
		if err != nil {
			span.SetStatus(codes.Error, "validation failed")
			return nil, err
		}
		pending = append(pending, image)
	}

	stored := make([]string, 0, len(pending))
	for _, image := range pending {
		key := path.Join(imagePrefix, uuid.NewString()+image.ext)
		if err := s.store.Save(ctx, key, bytes.NewReader(image.payload), int64(len(image.payload)), image.contentType); err != nil {
			observability.UploadsRejected().WithLabelValues("storage").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "storage failed")
			s.Discard(ctx, stored)
			return nil, err
		}
		stored = append(stored, key)
	}

	span.SetStatus(codes.Ok, "stored")
	return stored, nil
}

// Discard removes images written for a submission that did not commit.
func (s *imageService) Discard(ctx context.Context, paths []string) {
	for _, key := range paths {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("path", key).Msg("failed to discard image")
		}
	}
}

func (s *imageService) Open(ctx context.Context, filename string) (io.ReadCloser, string, error) {
	name := strings.TrimSpace(filename)
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return nil, "", ErrImageNotFound
	}
	contentType, ok := allowedImageTypes[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return nil, "", ErrImageNotFound
	}

	reader, err := s.store.Open(ctx, path.Join(imagePrefix, name))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, "", ErrImageNotFound
		}
		return nil, "", err
	}
	return reader, contentType, nil
}

func (s *imageService) read(file *multipart.FileHeader) (pendingImage, error) {
	if file == nil {
		return pendingImage{}, ErrImageTypeNotAllowed
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedImageTypes[ext]; !ok {
		observability.UploadsRejected().WithLabelValues("extension").Inc()
		return pendingImage{}, ErrImageTypeNotAllowed
	}
	if file.Size > s.maxSize {
		observability.UploadsRejected().WithLabelValues("size").Inc()
		return pendingImage{}, ErrImageTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		return pendingImage{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return pendingImage{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		observability.UploadsRejected().WithLabelValues("size").Inc()
		return pendingImage{}, ErrImageTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	if !detected.Is("image/jpeg") && !detected.Is("image/png") && !detected.Is("image/webp") {
		observability.UploadsRejected().WithLabelValues("content").Inc()
		return pendingImage{}, ErrImageTypeNotAllowed
	}

	return pendingImage{
		ext:         ext,
		contentType: detected.String(),
		payload:     buf.Bytes(),
	}, nil
}
