// Package qdrant is a minimal REST client that stores the index in a Qdrant
// collection. The collection uses cosine distance and is created on the
// first Add.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// DefaultTimeout bounds a single REST call.
const DefaultTimeout = 15 * time.Second

// errCollectionMissing reports a 404 for the collection itself.
var errCollectionMissing = errors.New("collection does not exist")

// Config holds the connection settings.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type client struct {
	baseURL    string
	apiKey     string
	collection string
	http       *http.Client
}

func newClient(cfg Config) *client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	base := strings.TrimRight(cfg.URL, "/")
	if base == "" {
		base = domain.DefaultQdrantURL
	}
	return &client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		http:       httpClient,
	}
}

func (c *client) collectionURL(suffix string) string {
	return c.baseURL + "/collections/" + url.PathEscape(c.collection) + suffix
}

// envelope is the common Qdrant response wrapper.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Status any             `json:"status"`
}

// do sends body as JSON and decodes the result field into out.
func (c *client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorIndexUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant %s: %v", domain.ErrVectorIndexUnavailable, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errCollectionMissing
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: qdrant %s %s failed (status %d): %s",
			domain.ErrVectorIndexUnavailable, method, endpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var env envelope
	if err := dec.Decode(&env); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrVectorIndexUnavailable, err)
	}
	dec = json.NewDecoder(bytes.NewReader(env.Result))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: decode result: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}
