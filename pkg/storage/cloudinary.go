package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// CloudinaryConfig contains credentials required to talk to Cloudinary.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Cloudinary stores images as Cloudinary assets. The object key, minus its
// extension, becomes the public id under the configured folder.
type Cloudinary struct {
	client *cloudinary.Cloudinary
	folder string
	http   *http.Client
	logger zerolog.Logger
}

// NewCloudinary constructs a Cloudinary backed store.
func NewCloudinary(cfg CloudinaryConfig, logger zerolog.Logger) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Cloudinary{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		http:   http.DefaultClient,
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

func (c *Cloudinary) Save(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	publicID, err := c.publicID(key)
	if err != nil {
		return err
	}

	result, err := c.client.Upload.Upload(ctx, reader, uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("failed to upload asset: %s", result.Error.Message)
	}

	c.logger.Info().Str("public_id", result.PublicID).Msg("file uploaded to cloudinary")
	return nil
}

func (c *Cloudinary) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	publicID, err := c.publicID(key)
	if err != nil {
		return nil, err
	}
	asset, err := c.client.Image(publicID)
	if err != nil {
		return nil, err
	}
	url, err := asset.String()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, ErrObjectNotFound
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("cloudinary fetch returned %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (c *Cloudinary) Delete(ctx context.Context, key string) error {
	publicID, err := c.publicID(key)
	if err != nil {
		return err
	}
	if _, err := c.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

func (c *Cloudinary) publicID(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	id := strings.TrimSuffix(cleaned, path.Ext(cleaned))
	if c.folder == "" {
		return id, nil
	}
	return c.folder + "/" + id, nil
}
