// Package ipfs pins uploaded assets through a pinning service.
package ipfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/steemit/agora/pkg/config"
	"github.com/steemit/agora/pkg/logging"
	"github.com/steemit/agora/pkg/telemetry"
)

// Client uploads files to a Pinata-compatible pinning API
type Client struct {
	apiURL  string
	gateway string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a pinning client
func New(cfg *config.IPFSConfig) *Client {
	return &Client{
		apiURL:  cfg.APIURL,
		gateway: strings.TrimRight(cfg.GatewayURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  logging.WithComponent("ipfs"),
	}
}

// Pin uploads the content of r under name and returns its content hash
func (c *Client) Pin(ctx context.Context, name string, r io.Reader) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "ipfs.pin")
	defer span.End()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if err := mw.WriteField("pinataMetadata", fmt.Sprintf(`{"name":%q}`, name)); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin %s: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read pin response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("pin %s: status %d: %s", name, resp.StatusCode, gjson.GetBytes(raw, "error").String())
	}

	cid := gjson.GetBytes(raw, "IpfsHash").String()
	if cid == "" {
		return "", fmt.Errorf("pin %s: response has no IpfsHash", name)
	}

	c.logger.Info("asset pinned", zap.String("name", name), zap.String("cid", cid))
	return cid, nil
}

// URL returns the public gateway URL of a content hash
func (c *Client) URL(cid string) string {
	return c.gateway + "/ipfs/" + cid
}
