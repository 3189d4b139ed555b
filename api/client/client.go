package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aouyang1/memoryframe/api/models"
)

// ProxyClient talks to the upload proxy with a bearer token.
type ProxyClient struct {
	baseURL *url.URL
	token   string
	client  *http.Client
}

func NewProxyClient(baseURL, token string) (*ProxyClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy url %q: scheme and host are required", baseURL)
	}
	return &ProxyClient{
		baseURL: u,
		token:   token,
		client:  &http.Client{},
	}, nil
}

// WithHTTPClient swaps the underlying http client.
func (pc *ProxyClient) WithHTTPClient(c *http.Client) *ProxyClient {
	pc.client = c
	return pc
}

// ObjectURL is the public read URL for key.
func (pc *ProxyClient) ObjectURL(key string) string {
	return pc.endpoint("/proxy", url.Values{"key": {key}})
}

// KeyFromURL returns the object key when raw is a read URL served by this proxy.
func (pc *ProxyClient) KeyFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !strings.EqualFold(u.Host, pc.baseURL.Host) || u.Path != pc.baseURL.Path+"/proxy" {
		return "", false
	}
	key := u.Query().Get("key")
	return key, key != ""
}

// Upload sends body directly to key.
func (pc *ProxyClient) Upload(ctx context.Context, key, contentType string, body io.Reader) (models.UploadResponse, error) {
	var resp models.UploadResponse
	err := pc.do(ctx, http.MethodPut, "/upload", url.Values{"key": {key}}, contentType, body, &resp)
	return resp, err
}

// SignUpload asks for a presigned PUT URL for key.
func (pc *ProxyClient) SignUpload(ctx context.Context, key, contentType string) (models.SignUploadResponse, error) {
	reqBody := models.SignUploadRequest{Key: key, ContentType: contentType}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return models.SignUploadResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp models.SignUploadResponse
	err = pc.do(ctx, http.MethodPost, "/sign-upload", nil, "application/json", bytes.NewReader(jsonData), &resp)
	return resp, err
}

// Delete removes a single object. Deleting a missing object is not an error.
func (pc *ProxyClient) Delete(ctx context.Context, key string) (models.DeleteResponse, error) {
	var resp models.DeleteResponse
	err := pc.do(ctx, http.MethodDelete, "/delete", url.Values{"key": {key}}, "", nil, &resp)
	return resp, err
}

func (pc *ProxyClient) DeletePrefix(ctx context.Context, prefix string) (models.DeletePrefixResponse, error) {
	var resp models.DeletePrefixResponse
	err := pc.do(ctx, http.MethodDelete, "/delete-prefix", url.Values{"prefix": {prefix}}, "", nil, &resp)
	return resp, err
}

func (pc *ProxyClient) Reconcile(ctx context.Context, prefix string) (models.ReconcileResponse, error) {
	var resp models.ReconcileResponse
	err := pc.do(ctx, http.MethodGet, "/reconcile", url.Values{"prefix": {prefix}}, "", nil, &resp)
	return resp, err
}

// Cleanup deletes every object under prefix that is not in keep.
func (pc *ProxyClient) Cleanup(ctx context.Context, prefix string, keep []string) (models.CleanupResponse, error) {
	if keep == nil {
		keep = []string{}
	}
	reqBody := models.CleanupRequest{Prefix: prefix, Keep: keep}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return models.CleanupResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp models.CleanupResponse
	err = pc.do(ctx, http.MethodPost, "/cleanup", nil, "application/json", bytes.NewReader(jsonData), &resp)
	return resp, err
}

func (pc *ProxyClient) endpoint(path string, query url.Values) string {
	u := *pc.baseURL
	u.Path = pc.baseURL.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (pc *ProxyClient) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, pc.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+pc.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := pc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
