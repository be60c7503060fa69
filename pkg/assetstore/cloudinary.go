package assetstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// Config holds Cloudinary account settings
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Timeout   time.Duration // per-request bound for fetches and HEAD checks
}

// CloudinaryStore implements Store on top of the Cloudinary SDK. Delivery
// URLs are fetched with a plain HTTP client.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	secret string
	client *http.Client
	logger *zap.Logger
}

// NewCloudinaryStore creates a new Cloudinary-backed asset store
func NewCloudinaryStore(cfg Config, logger *zap.Logger) (*CloudinaryStore, error) {
	if cfg.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud name is required")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true
	cld.Config.URL.Analytics = false

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &CloudinaryStore{
		cld:    cld,
		secret: cfg.APISecret,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("component", "assetstore")),
	}, nil
}

func (s *CloudinaryStore) Credentials() Credentials {
	return Credentials{
		CloudName: s.cld.Config.Cloud.CloudName,
		APIKey:    s.cld.Config.Cloud.APIKey,
	}
}

func (s *CloudinaryStore) SignUpload(timestamp int64, folder string) (string, error) {
	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))
	if folder != "" {
		params.Set("folder", folder)
	}

	signature, err := api.SignParameters(params, s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign upload: %w", err)
	}
	return signature, nil
}

func (s *CloudinaryStore) BuildTransformURL(baseAssetID string, steps []TransformStep) (string, error) {
	img, err := s.cld.Image(baseAssetID)
	if err != nil {
		return "", fmt.Errorf("failed to build asset %s: %w", baseAssetID, err)
	}
	img.Transformation = Chain(steps)

	u, err := img.String()
	if err != nil {
		return "", fmt.Errorf("failed to build transform url: %w", err)
	}
	return u, nil
}

func (s *CloudinaryStore) PublicURL(assetID string) (string, error) {
	img, err := s.cld.Image(assetID)
	if err != nil {
		return "", fmt.Errorf("failed to build asset %s: %w", assetID, err)
	}

	u, err := img.String()
	if err != nil {
		return "", fmt.Errorf("failed to build public url: %w", err)
	}
	return u, nil
}

// Resolve issues a HEAD against url so the store renders (or rejects) it.
func (s *CloudinaryStore) Resolve(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create resolve request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to resolve asset url: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func (s *CloudinaryStore) FetchBytes(ctx context.Context, assetID string) ([]byte, error) {
	u, err := s.PublicURL(assetID)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, u)
}

func (s *CloudinaryStore) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset body: %w", err)
	}
	return body, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, data []byte, name, folder string) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID: name,
		Folder:   folder,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("asset store rejected upload: %s", result.Error.Message)
	}
	if result.PublicID == "" {
		return "", errors.New("asset store returned no public id")
	}

	s.logger.Debug("asset uploaded", zap.String("asset_id", result.PublicID), zap.Int("bytes", len(data)))
	return result.PublicID, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	// Cloudinary explains rejected transformations in this header.
	reason := resp.Header.Get("X-Cld-Error")
	if resp.StatusCode == http.StatusNotFound {
		if reason != "" {
			return fmt.Errorf("%w: %s", ErrAssetNotFound, reason)
		}
		return ErrAssetNotFound
	}
	if reason != "" {
		return fmt.Errorf("asset store returned status %d: %s", resp.StatusCode, reason)
	}
	return fmt.Errorf("asset store returned status %d", resp.StatusCode)
}
