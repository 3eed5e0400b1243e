package sqlite

import (
	"database/sql/driver"
	"fmt"
	"sync"

	sqlite "modernc.org/sqlite"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage/vectors"
)

// distanceFunction is the SQL name of the cosine distance function:
// cosine_distance(embedding BLOB, magnitude REAL, query BLOB, query_magnitude REAL).
const distanceFunction = "cosine_distance"

var registerOnce sync.Once

// registerFunctions makes cosine_distance available on connections opened
// afterwards. The driver keeps registrations process-wide.
func registerFunctions() {
	registerOnce.Do(func() {
		_ = sqlite.RegisterDeterministicScalarFunction(distanceFunction, 4, cosineDistanceImpl)
	})
}

func cosineDistanceImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("%s: expected 4 arguments, got %d", distanceFunction, len(args))
	}
	a, err := blobArg(args[0])
	if err != nil {
		return nil, err
	}
	b, err := blobArg(args[2])
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	return vectors.CosineDistance(a, b, float32(realArg(args[1])), float32(realArg(args[3]))), nil
}

func blobArg(v driver.Value) ([]float32, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return vectors.Decode(b)
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T; want BLOB", distanceFunction, v)
	}
}

func realArg(v driver.Value) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}
