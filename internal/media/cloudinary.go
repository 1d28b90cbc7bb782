package media

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	uploadTimeout = 25 * time.Second
	maxRetries    = 2
)

// Cloudinary uploads images through an unsigned upload preset and deletes
// them with a signed destroy call. The API secret stays server-side; it is
// never part of the upload path.
type Cloudinary struct {
	cloudName    string
	uploadPreset string
	apiKey       string
	apiSecret    string

	baseURL string
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
}

func NewCloudinary(logger *slog.Logger, cloudName, uploadPreset, apiKey, apiSecret string) *Cloudinary {
	return &Cloudinary{
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		baseURL:      "https://api.cloudinary.com/v1_1",
		client:       &http.Client{},
		logger:       logger,
		now:          time.Now,
		sleep:        sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Upload sends the blob to the image upload endpoint. Each attempt gets its
// own 25 s budget; transient failures are retried twice with linear backoff
// (1 s, then 2 s) before the error is returned to the caller.
func (c *Cloudinary) Upload(ctx context.Context, blob []byte) (Asset, error) {
	if c.cloudName == "" || c.uploadPreset == "" {
		return Asset{}, fmt.Errorf("cloudinary is not configured")
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		asset, err := c.uploadOnce(ctx, blob)
		if err == nil {
			return asset, nil
		}
		lastErr = err

		if attempt < maxRetries {
			c.logger.Warn("upload attempt failed, retrying",
				"attempt", attempt+1, "error", err)
			if err := c.sleep(ctx, time.Duration(attempt+1)*time.Second); err != nil {
				return Asset{}, err
			}
		}
	}
	return Asset{}, fmt.Errorf("uploading image after %d attempts: %w", maxRetries+1, lastErr)
}

func (c *Cloudinary) uploadOnce(ctx context.Context, blob []byte) (Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "submission")
	if err != nil {
		return Asset{}, err
	}
	if _, err := fw.Write(blob); err != nil {
		return Asset{}, err
	}
	if err := mw.WriteField("upload_preset", c.uploadPreset); err != nil {
		return Asset{}, err
	}
	if err := mw.Close(); err != nil {
		return Asset{}, err
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return Asset{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return Asset{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Asset{}, fmt.Errorf("upload failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var result struct {
		SecureURL string `json:"secure_url"`
		PublicID  string `json:"public_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Asset{}, fmt.Errorf("decoding upload response: %w", err)
	}
	if result.SecureURL == "" || result.PublicID == "" {
		return Asset{}, fmt.Errorf("upload response missing url or public id")
	}
	return Asset{URL: result.SecureURL, DeleteHandle: result.PublicID}, nil
}

// Delete destroys the asset identified by handle using a signed request.
// The signature covers public_id and timestamp, per the destroy API.
func (c *Cloudinary) Delete(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	if c.apiKey == "" || c.apiSecret == "" {
		return fmt.Errorf("cloudinary delete credentials are not configured")
	}

	ts := fmt.Sprintf("%d", c.now().Unix())
	sum := sha1.Sum([]byte("public_id=" + handle + "&timestamp=" + ts + c.apiSecret))

	form := url.Values{
		"public_id": {handle},
		"api_key":   {c.apiKey},
		"timestamp": {ts},
		"signature": {hex.EncodeToString(sum[:])},
	}

	endpoint := fmt.Sprintf("%s/%s/image/destroy", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("destroy failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}
