package chain

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"ticketHub/internal/model"
)

const (
	defaultIPFSGateway     = "https://ipfs.io/ipfs/"
	defaultMetadataTimeout = 10 * time.Second
	maxMetadataBytes       = 1 << 20
)

// MetadataConfig configures ticket metadata resolution.
type MetadataConfig struct {
	IPFSGateway string
	Timeout     time.Duration
}

// MetadataResolver fetches token metadata documents and caches them by URI.
type MetadataResolver struct {
	httpClient *http.Client
	gateway    string
	logger     *zap.Logger

	mu    sync.RWMutex
	cache map[string]model.TicketMetadata
}

func NewMetadataResolver(cfg MetadataConfig, httpClient *http.Client, logger *zap.Logger) *MetadataResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultMetadataTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	gateway := cfg.IPFSGateway
	if gateway == "" {
		gateway = defaultIPFSGateway
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &MetadataResolver{
		httpClient: httpClient,
		gateway:    gateway,
		logger:     logger,
		cache:      make(map[string]model.TicketMetadata),
	}
}

// Resolve never fails: any fetch or parse problem yields the raw URI as image.
func (r *MetadataResolver) Resolve(ctx context.Context, tokenID uint64, uri string) model.TicketMetadata {
	r.mu.RLock()
	cached, ok := r.cache[uri]
	r.mu.RUnlock()
	if ok {
		cached.TokenID = tokenID
		return cached
	}

	fallback := model.TicketMetadata{TokenID: tokenID, URI: uri, Image: uri, Degraded: true}

	body, err := r.fetch(ctx, uri)
	if err != nil {
		r.logger.Debug("metadata fetch failed", zap.Uint64("token_id", tokenID), zap.String("uri", uri), zap.Error(err))
		return fallback
	}
	if !gjson.ValidBytes(body) {
		r.logger.Debug("metadata is not json", zap.Uint64("token_id", tokenID), zap.String("uri", uri))
		return fallback
	}

	image := gjson.GetBytes(body, "image").String()
	if image == "" {
		image = gjson.GetBytes(body, "image_url").String()
	}
	if image == "" {
		r.logger.Debug("metadata has no image", zap.Uint64("token_id", tokenID), zap.String("uri", uri))
		return fallback
	}

	meta := model.TicketMetadata{
		TokenID: tokenID,
		URI:     uri,
		Name:    gjson.GetBytes(body, "name").String(),
		Image:   r.gatewayURL(image),
	}

	r.mu.Lock()
	r.cache[uri] = meta
	r.mu.Unlock()
	return meta
}

func (r *MetadataResolver) fetch(ctx context.Context, uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		return decodeDataURI(uri)
	}

	target := r.gatewayURL(uri)
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse uri: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get metadata: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBytes))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	return body, nil
}

func (r *MetadataResolver) gatewayURL(uri string) string {
	if strings.HasPrefix(uri, "ipfs://") {
		path := strings.TrimPrefix(uri, "ipfs://")
		path = strings.TrimPrefix(path, "ipfs/")
		return r.gateway + path
	}
	return uri
}

func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data uri")
	}
	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data uri: %w", err)
		}
		return data, nil
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("unescape data uri: %w", err)
	}
	return []byte(decoded), nil
}
