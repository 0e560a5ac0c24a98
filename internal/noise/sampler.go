package noise

import (
	"fmt"

	perlin "github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Sampler evaluates a 2D scalar noise function. Implementations must be safe
// for concurrent use.
type Sampler interface {
	Eval2(x, y float64) float64
}

// SamplerFunc adapts a plain function to Sampler.
type SamplerFunc func(x, y float64) float64

// Eval2 calls fn(x, y).
func (fn SamplerFunc) Eval2(x, y float64) float64 { return fn(x, y) }

// Backend names accepted by NewSampler.
const (
	BackendImproveX    = "opensimplex2-improvex"
	BackendStandard    = "opensimplex2"
	BackendOpenSimplex = "opensimplex"
	BackendPerlin      = "perlin"
)

// DefaultBackend is used when no backend is named.
const DefaultBackend = BackendImproveX

// Backends lists every backend name NewSampler understands.
func Backends() []string {
	return []string{BackendImproveX, BackendStandard, BackendOpenSimplex, BackendPerlin}
}

// NewSampler builds the named noise backend for seed. An empty name selects
// DefaultBackend.
func NewSampler(kind string, seed int64) (Sampler, error) {
	switch kind {
	case "", BackendImproveX:
		return SamplerFunc(New(seed).Noise2ImproveX), nil
	case BackendStandard:
		return SamplerFunc(New(seed).Noise2), nil
	case BackendOpenSimplex:
		return opensimplex.New(seed), nil
	case BackendPerlin:
		p := perlin.NewPerlin(2, 2, 3, seed)
		return SamplerFunc(p.Noise2D), nil
	default:
		return nil, fmt.Errorf("unknown noise backend %q", kind)
	}
}
