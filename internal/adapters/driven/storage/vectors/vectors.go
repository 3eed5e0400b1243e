// Package vectors holds helpers shared by the vector index backends:
// input validation, cosine distance and the float32 blob encoding.
package vectors

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/viant/vec/search"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// ValidateAdd checks that the four Add slices line up and that every
// embedding has the same length. It returns that length.
func ValidateAdd(ids []string, embeddings [][]float32, documents []string, metadatas []map[string]any) (int, error) {
	n := len(ids)
	if len(embeddings) != n || len(documents) != n || len(metadatas) != n {
		return 0, fmt.Errorf("%w: ids=%d embeddings=%d documents=%d metadatas=%d",
			domain.ErrInvalidInput, len(ids), len(embeddings), len(documents), len(metadatas))
	}
	if n == 0 {
		return 0, nil
	}
	dim := len(embeddings[0])
	for i, e := range embeddings {
		if len(e) == 0 {
			return 0, fmt.Errorf("%w: empty embedding for %s", domain.ErrInvalidInput, ids[i])
		}
		if len(e) != dim {
			return 0, fmt.Errorf("%w: %s has %d dimensions, want %d", domain.ErrDimensionMismatch, ids[i], len(e), dim)
		}
	}
	return dim, nil
}

// CleanMetadata returns nil for empty metadata so backends store
// "no metadata" instead of an empty object.
func CleanMetadata(md map[string]any) map[string]any {
	if len(md) == 0 {
		return nil
	}
	return md
}

// Magnitude returns the Euclidean norm of v.
func Magnitude(v []float32) float32 {
	return search.Float32s(v).Magnitude()
}

// CosineDistance returns 1 - cosine similarity of a and b. Zero-magnitude
// vectors are at distance 1 from everything. Only Float32s.CosineDistance
// is exported by vec on both arm64 and other architectures.
func CosineDistance(a, b []float32, magA, magB float32) float64 {
	if len(a) != len(b) || magA == 0 || magB == 0 {
		return 1
	}
	return float64(search.Float32s(a).CosineDistance(b))
}

// Encode converts an embedding to a little-endian float32 blob.
func Encode(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode converts a blob written by Encode back to an embedding.
func Decode(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: embedding blob length %d is not a multiple of 4", domain.ErrInvalidInput, len(data))
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats, nil
}

// EncodeMetadata marshals metadata to JSON, returning nil for none.
func EncodeMetadata(md map[string]any) ([]byte, error) {
	md = CleanMetadata(md)
	if md == nil {
		return nil, nil
	}
	data, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return data, nil
}

// DecodeMetadata unmarshals JSON metadata. Whole numbers decode as int
// so that chunk_index round-trips unchanged.
func DecodeMetadata(data []byte) (map[string]any, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var md map[string]any
	if err := dec.Decode(&md); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return NormaliseNumbers(md), nil
}

// NormaliseNumbers converts json.Number and whole float64 values to int.
func NormaliseNumbers(md map[string]any) map[string]any {
	if len(md) == 0 {
		return nil
	}
	for k, v := range md {
		switch n := v.(type) {
		case json.Number:
			if i, err := n.Int64(); err == nil {
				md[k] = int(i)
			} else if f, err := n.Float64(); err == nil {
				md[k] = f
			}
		case float64:
			if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
				md[k] = int(n)
			}
		}
	}
	return md
}
