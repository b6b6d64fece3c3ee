package fusion

import (
	"fmt"

	"github.com/intuitionamiga/irfusion/internal/clahe"
	"github.com/intuitionamiga/irfusion/internal/quadtree"
	"github.com/intuitionamiga/irfusion/internal/registration"
)

// Style selects how the compositor fills the fused frame's chroma plane.
type Style int

const (
	StyleColor Style = iota // copy regt's U/V plane
	StyleGray               // fill chroma with neutral 0x80
)

// Options carries every tunable of the fusion pipeline. A single struct is
// validated once, before any worker is spawned, rather than checked
// piecemeal by each stage.
type Options struct {
	// Output geometry ("base"): the IR frame's native resolution. Typical
	// values are 384x288 or 640x480.
	BaseWidth, BaseHeight int
	// Input geometry of the raw visible frame before registration.
	UnregWidth, UnregHeight int

	// NGLS is the suppression histogram's bin count.
	NGLS int
	// SSR is the maximum suppression ratio.
	SSR float64
	// BPR is the brightest-pixel fraction used to find the suppression mean.
	BPR float64

	Thresholds quadtree.Thresholds

	MinFilterSize int // mf_size; radius = size/2
	GaussianSigma float64

	CutThresh uint64
	ClipLimit float64
	RawFormat clahe.Format

	Style Style

	// ControlPoints maps unregistered-visible coordinates to base (IR)
	// coordinates; at least registration.MinControlPoints pairs are
	// required. Used to solve the affine warp and to fingerprint the cached
	// interpolation table.
	ControlPoints []registration.ControlPoint

	// CacheDir, if non-empty, is where the affine interpolation table is
	// cached to disk and reloaded on a fingerprint match.
	CacheDir string

	// BlockOnFull switches every internal ring to a blocking-instead-of-
	// dropping discipline; a deterministic test-mode variant blocks instead.
	BlockOnFull bool
}

// DefaultOptions returns the documented defaults at the given base
// geometry.
func DefaultOptions(baseWidth, baseHeight int) Options {
	return Options{
		BaseWidth:     baseWidth,
		BaseHeight:    baseHeight,
		UnregWidth:    1920,
		UnregHeight:   1080,
		NGLS:          65536,
		SSR:           0.8,
		BPR:           0.001,
		Thresholds:    quadtree.DefaultThresholds(),
		MinFilterSize: 11,
		GaussianSigma: 4.5,
		CutThresh:     clahe.DefaultCutThresh,
		ClipLimit:     clahe.DefaultClipLimit,
		RawFormat:     clahe.FormatYUV420,
		Style:         StyleColor,
	}
}

// Validate is the single Configuration-error gate, run once by
// NewFusion before any buffer is allocated or worker spawned.
func (o Options) Validate() error {
	if o.BaseWidth <= 0 || o.BaseHeight <= 0 {
		return fmt.Errorf("%w: non-positive base geometry %dx%d", ErrConfiguration, o.BaseWidth, o.BaseHeight)
	}
	if o.UnregWidth <= 0 || o.UnregHeight <= 0 {
		return fmt.Errorf("%w: non-positive unregistered geometry %dx%d", ErrConfiguration, o.UnregWidth, o.UnregHeight)
	}
	if o.NGLS <= 0 {
		return fmt.Errorf("%w: non-positive suppression histogram bin count %d", ErrConfiguration, o.NGLS)
	}
	if o.SSR <= 0 || o.SSR > 1 {
		return fmt.Errorf("%w: suppression ratio %g out of (0,1]", ErrConfiguration, o.SSR)
	}
	if o.BPR <= 0 || o.BPR >= 1 {
		return fmt.Errorf("%w: brightest-pixel fraction %g out of (0,1)", ErrConfiguration, o.BPR)
	}
	if o.MinFilterSize <= 0 {
		return fmt.Errorf("%w: non-positive min-filter size %d", ErrConfiguration, o.MinFilterSize)
	}
	if o.GaussianSigma <= 0 {
		return fmt.Errorf("%w: non-positive Gaussian sigma %g", ErrConfiguration, o.GaussianSigma)
	}
	if o.Style != StyleColor && o.Style != StyleGray {
		return fmt.Errorf("%w: unknown style %d", ErrConfiguration, o.Style)
	}
	clOpts := clahe.Options{Width: o.BaseWidth, Height: o.BaseHeight, Format: o.RawFormat, CutThresh: o.CutThresh, ClipLimit: o.ClipLimit}
	if err := clOpts.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if len(o.ControlPoints) < registration.MinControlPoints {
		return fmt.Errorf("%w: need at least %d control points, got %d", ErrConfiguration, registration.MinControlPoints, len(o.ControlPoints))
	}
	return nil
}
