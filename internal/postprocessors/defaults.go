package postprocessors

import (
	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperchat-cli/internal/postprocessors/semantic"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
// The embedder is captured by the semantic chunker builder; it may be nil,
// in which case building "semantic" fails at Process time.
func RegisterDefaults(r *Registry, embedder driven.EmbeddingService) {
	r.Register("semantic", buildSemantic(embedder))
}

// buildSemantic returns a builder for the semantic chunker bound to the
// given embedding service. Supported config keys:
//   - breakpoint_percentile (float): Distance percentile above which a
//     sentence boundary becomes a chunk breakpoint (default: 95.0)
//   - buffer_size (int): Neighbouring sentences joined on each side when
//     embedding a sentence for boundary detection (default: 1)
func buildSemantic(embedder driven.EmbeddingService) BuilderFunc {
	return func(cfg map[string]any) (driven.PostProcessor, error) {
		var opts []semantic.Option

		if cfg != nil {
			if p := getFloatFromConfig(cfg, "breakpoint_percentile"); p > 0 {
				opts = append(opts, semantic.WithPercentile(p))
			}
			if buf, ok := getIntFromConfig(cfg, "buffer_size"); ok && buf >= 0 {
				opts = append(opts, semantic.WithBufferSize(buf))
			}
		}

		return semantic.New(embedder, opts...), nil
	}
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// getFloatFromConfig safely extracts a float64 from generic config map.
func getFloatFromConfig(cfg map[string]any, key string) float64 {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
