// Package provider holds HTTP helpers shared by the embedding and LLM
// adapters.
package provider

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// maxErrorBody caps how much of an error response is kept in messages.
const maxErrorBody = 2048

// StatusError reads a non-2xx response into a classified ProviderError.
func StatusError(name string, resp *http.Response) *domain.ProviderError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if err != nil || msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	pe := domain.NewStatusError(name, resp.StatusCode, msg)
	pe.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	return pe
}

// TransportError wraps a failed round trip. A deadline on ctx is reported
// as the context error so callers see why the call stopped.
func TransportError(ctx context.Context, name string, err error) *domain.ProviderError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return domain.NewTransportError(name, err)
}

// ParseRetryAfter interprets a Retry-After header given in seconds or as
// an HTTP date. It returns zero when absent or unparsable.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// ToFloat32 converts a JSON-decoded vector.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
