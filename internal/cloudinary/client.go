package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"
)

// Client talks to the Cloudinary upload REST API directly. Study materials go
// up as the raw resource type so PDFs and slides work, not just images.
type Client struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	http      *http.Client
}

// New creates a client for one Cloudinary account.
func New(cloudName, apiKey, apiSecret, folder string) *Client {
	return &Client{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		folder:    folder,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// UploadResult is the subset of Cloudinary's upload response we keep.
type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Format    string `json:"format"`
	Bytes     int    `json:"bytes"`
}

// Upload pushes raw file bytes and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, data []byte, filename string) (*UploadResult, error) {
	fields := url.Values{}
	fields.Set("timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	if c.folder != "" {
		fields.Set("folder", c.folder)
	}
	fields.Set("signature", c.sign(fields))
	fields.Set("api_key", c.apiKey)

	body, contentType, err := encodeForm(fields, data, filename)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/raw/upload", c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: upload request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cloudinary: upload rejected (%d): %s", resp.StatusCode, raw)
	}

	var result UploadResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("cloudinary: decode response: %w", err)
	}
	return &result, nil
}

// encodeForm builds the multipart body: the signed fields plus the file part.
func encodeForm(fields url.Values, data []byte, filename string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key := range fields {
		if err := w.WriteField(key, fields.Get(key)); err != nil {
			return nil, "", err
		}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// sign computes the request signature: the sorted non-empty fields joined as a
// query string, with the secret appended, hashed with SHA-1. api_key and the
// file itself never enter the signature.
func (c *Client) sign(fields url.Values) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "api_key" || k == "file" {
			continue
		}
		if v := fields.Get(k); v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var payload bytes.Buffer
	for i, k := range keys {
		if i > 0 {
			payload.WriteByte('&')
		}
		payload.WriteString(k + "=" + fields.Get(k))
	}
	payload.WriteString(c.apiSecret)
	return fmt.Sprintf("%x", sha1.Sum(payload.Bytes()))
}
