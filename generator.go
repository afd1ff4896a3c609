package volcanocache

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	MinDatasetSize = 100
	MaxDatasetSize = 10_000_000

	// DefaultSeed keeps datasets comparable across processes and restarts.
	DefaultSeed uint64 = 42
)

var metaboliteNames = []string{
	"1,3-Isoquinolinediol", "3,4-Dihydro-3-oxo-2H-(1,4)-benzoxazin-2-ylacetic acid",
	"(2-oxo-2,3-dihydro-1H-indol-3-yl)acetic acid", "Resedine", "Methionine sulfoxide",
	"trans-Urocanic acid", "Pro-Tyr", "Glu-Gly-Glu", "NP-024517", "Trp-Pro",
	"Biotin", "Pyridoxine", "Sulfocholic acid", "Pro-Pro", "Targinine",
	"L-Carnitine", "Taurine", "Creatine", "Adenosine", "Guanosine",
	"Cytidine", "Uridine", "Thymidine", "Inosine", "Xanthosine",
	"Hypoxanthine", "Xanthine", "Uric acid", "Allantoin", "Creatinine",
}

var superclasses = []string{
	"Organic acids and derivatives", "Organoheterocyclic compounds",
	"Lipids and lipid-like molecules", "Others", "Nucleosides, nucleotides, and analogues",
}

var classes = []string{
	"Carboxylic acids and derivatives", "Indoles and derivatives", "Benzoxazines",
	"Azolidines", "Azoles", "Biotin and derivatives", "Pyridines and derivatives",
	"Steroids and steroid derivatives", "Others", "Purine nucleosides",
}

// Generator synthesizes a dataset of the requested size.
type Generator interface {
	Generate(size int) (*Dataset, error)
}

/*
mode describes one of the three partitions of a synthetic dataset.

The shape mimics a typical untargeted metabolomics comparison: most
features do not move, a small symmetric tail is strongly up or down
regulated with low adjusted p-values.
*/
type mode struct {
	effectMean, effectSD float64
	pLow, pHigh          float64
}

var (
	modeNonSignificant = mode{effectMean: 0, effectSD: 0.25, pLow: 0.05, pHigh: 1.0}
	modeUp             = mode{effectMean: 1.5, effectSD: 0.6, pLow: 1e-6, pHigh: 0.05}
	modeDown           = mode{effectMean: -1.5, effectSD: 0.6, pLow: 1e-6, pHigh: 0.05}
)

const (
	nonSignificantShare = 0.85
	upShare             = 0.075
	jitterSD            = 0.05
	minPValue           = 1e-6
)

// SyntheticGenerator produces the three-mode volcano distribution.
// The PCG stream is seeded from (Seed, size), so one size always yields
// the same dataset for a given seed.
type SyntheticGenerator struct {
	Seed uint64
}

// NewGenerator returns a SyntheticGenerator seeded with seed.
func NewGenerator(seed uint64) *SyntheticGenerator {
	return &SyntheticGenerator{Seed: seed}
}

// ClampDatasetSize bounds size to [MinDatasetSize, MaxDatasetSize].
func ClampDatasetSize(size int) int {
	return min(max(size, MinDatasetSize), MaxDatasetSize)
}

// partition splits n into non-significant, up and down counts that sum to n.
func partition(n int) (nonSig, up, down int) {
	nonSig = int(float64(n) * nonSignificantShare)
	up = int(float64(n) * upShare)
	down = n - nonSig - up
	return nonSig, up, down
}

/*
Generate synthesizes a dataset of ClampDatasetSize(size) points.

Rows are drawn per partition, shuffled, then numbered from 1 so IDs and
names follow the final order.
*/
func (g *SyntheticGenerator) Generate(size int) (*Dataset, error) {
	size = ClampDatasetSize(size)
	rng := rand.New(rand.NewPCG(g.Seed, uint64(size)))

	nonSig, up, down := partition(size)
	points := make([]Point, 0, size)
	points = appendMode(points, rng, nonSig, modeNonSignificant)
	points = appendMode(points, rng, up, modeUp)
	points = appendMode(points, rng, down, modeDown)

	rng.Shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
	})

	for i := range points {
		id := i + 1
		points[i].ID = id
		if i < len(metaboliteNames) {
			points[i].Name = metaboliteNames[i]
		} else {
			points[i].Name = fmt.Sprintf("Metabolite_%d", id)
		}
		points[i].Superclass = superclasses[rng.IntN(len(superclasses))]
		points[i].Class = classes[rng.IntN(len(classes))]
	}

	ds := &Dataset{Size: size, Points: points}
	if !ds.valid() {
		return nil, fmt.Errorf("%w: produced %d rows for size %d", ErrGeneration, len(points), size)
	}
	return ds, nil
}

func appendMode(dst []Point, rng *rand.Rand, n int, m mode) []Point {
	for range n {
		effect := m.effectMean + rng.NormFloat64()*m.effectSD
		effect += rng.NormFloat64() * jitterSD

		p := m.pLow + rng.Float64()*(m.pHigh-m.pLow)
		p = min(max(round(p, 6), minPValue), 1.0)

		dst = append(dst, Point{
			Effect: round(effect, 4),
			PValue: p,
		})
	}
	return dst
}

func round(x float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(x*scale) / scale
}
