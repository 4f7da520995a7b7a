package chain

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMetadataResolverHTTP(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Ticket #4","image":"ipfs://QmImage/4.png"}`))
	}))
	defer server.Close()

	resolver := NewMetadataResolver(MetadataConfig{IPFSGateway: "https://gateway.example/ipfs"}, server.Client(), zap.NewNop())

	meta := resolver.Resolve(context.Background(), 4, server.URL+"/4.json")
	assert.False(t, meta.Degraded)
	assert.Equal(t, "Ticket #4", meta.Name)
	assert.Equal(t, "https://gateway.example/ipfs/QmImage/4.png", meta.Image)
	assert.Equal(t, uint64(4), meta.TokenID)

	again := resolver.Resolve(context.Background(), 4, server.URL+"/4.json")
	assert.Equal(t, meta, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestMetadataResolverDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.json":
			http.NotFound(w, r)
		case "/html":
			_, _ = w.Write([]byte("<html></html>"))
		default:
			_, _ = w.Write([]byte(`{"name":"no image"}`))
		}
	}))
	defer server.Close()

	resolver := NewMetadataResolver(MetadataConfig{}, server.Client(), zap.NewNop())

	for _, uri := range []string{
		server.URL + "/missing.json",
		server.URL + "/html",
		server.URL + "/noimage.json",
		"ftp://example.com/ticket.json",
	} {
		meta := resolver.Resolve(context.Background(), 1, uri)
		assert.True(t, meta.Degraded, uri)
		assert.Equal(t, uri, meta.Image, uri)
		assert.Equal(t, uri, meta.URI, uri)
	}
}

func TestMetadataResolverDataURI(t *testing.T) {
	resolver := NewMetadataResolver(MetadataConfig{}, nil, zap.NewNop())

	payload := base64.StdEncoding.EncodeToString([]byte(`{"image":"https://cdn.example/t.png"}`))
	meta := resolver.Resolve(context.Background(), 2, "data:application/json;base64,"+payload)
	assert.False(t, meta.Degraded)
	assert.Equal(t, "https://cdn.example/t.png", meta.Image)

	plain := resolver.Resolve(context.Background(), 3, `data:application/json,{"image_url":"https://cdn.example/u.png"}`)
	assert.False(t, plain.Degraded)
	assert.Equal(t, "https://cdn.example/u.png", plain.Image)
}
