// Package clahe implements the IR raw-to-grayscale preprocessor
// 14-bit sample recombination, a rearranged/compacted histogram,
// clip-limit redistribution, and a contrast-stretch lookup, packed into the
// caller's chosen output pixel layout.
//
// The source's CLAHE converter is process-wide global state; here it is an
// explicit owned instance (Converter) constructed once
// with a fixed (Format, width, height) and threaded into the IR preprocess
// stage by the caller — never referenced through a package-level variable.
package clahe

import "fmt"

const (
	// NBins is the number of histogram bins for 14-bit raw samples.
	NBins = 16384
	// DefaultCutThresh is the default CLAHE bin-drop threshold.
	DefaultCutThresh = 4
	// DefaultClipLimit is the default CLAHE clip limit.
	DefaultClipLimit = 1.0
)

// Format selects the packed pixel layout CLAHE output is written into.
type Format int

const (
	FormatYUV422 Format = iota
	FormatYUV420
	FormatRGB
	FormatRGBA
)

func (f Format) valid() bool {
	return f >= FormatYUV422 && f <= FormatRGBA
}

// Options configures a Converter.
type Options struct {
	Width, Height int
	Format        Format
	CutThresh     uint64
	ClipLimit     float64
}

// DefaultOptions returns the default CLAHE options for the given
// output geometry.
func DefaultOptions(width, height int) Options {
	return Options{
		Width:     width,
		Height:    height,
		Format:    FormatYUV420,
		CutThresh: DefaultCutThresh,
		ClipLimit: DefaultClipLimit,
	}
}

// Validate rejects configuration that would make the converter unusable.
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("clahe: non-positive geometry %dx%d", o.Width, o.Height)
	}
	if !o.Format.valid() {
		return fmt.Errorf("clahe: unknown format %d", o.Format)
	}
	if o.ClipLimit <= 0 {
		return fmt.Errorf("clahe: clip limit must be positive, got %g", o.ClipLimit)
	}
	return nil
}

// Converter is the owned, single-process-wide-equivalent CLAHE instance:
// constructed once with a fixed geometry and format, reused across every
// frame. It is not a singleton — the caller owns the pointer and is free to
// construct more than one for testing, unlike the source's global.
type Converter struct {
	opts Options

	hist       [NBins]uint64
	rearrange  [NBins]uint32
	compact    []uint64 // clipped/redistributed histogram, length nValidBins
	stretchMap []byte   // length nValidBins
	nValidBins int
}

// New constructs a Converter for the given options. Returns an error if the
// options don't validate (a Configuration error).
func New(opts Options) (*Converter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Converter{opts: opts}, nil
}

// RecombineFrame reads packed 14-bit little-endian samples from the raw
// IR frame format into dst, one uint16 per pixel.
func RecombineFrame(dst []uint16, raw []byte) {
	n := len(raw) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		lo := raw[2*i]
		hi := raw[2*i+1]
		dst[i] = (uint16(hi&0x7F) << 8) | uint16(lo)
	}
}

// ConvertY runs the CLAHE pipeline through the apply step (recombine ->
// histogram -> rearrange -> clip -> stretch -> apply) and writes the plain
// 8-bit luma plane into y, with no chroma packing. This is the form the
// fusion compositor consumes directly, since its arithmetic (bright,
// etbk, refined, ...) operates on single-channel planes.
func (c *Converter) ConvertY(y []byte, raw []byte) error {
	n := c.opts.Width * c.opts.Height
	if len(raw) < 2*n {
		return fmt.Errorf("clahe: raw frame too short: got %d bytes, want %d", len(raw), 2*n)
	}
	if len(y) < n {
		return fmt.Errorf("clahe: y-plane too short: got %d bytes, want %d", len(y), n)
	}

	samples := make([]uint16, n)
	RecombineFrame(samples, raw)

	c.buildHistogram(samples)
	c.rearrangeBins()
	c.clipAndRedistribute()
	c.buildStretchMap(n)

	c.apply(y[:n], samples)
	return nil
}

// Convert runs the full CLAHE pipeline (ConvertY, then Pack) over one raw IR
// frame and writes the packed output frame into dst. dst must already be
// sized for c's Format at c's geometry (see FrameSize).
func (c *Converter) Convert(dst []byte, raw []byte) error {
	n := c.opts.Width * c.opts.Height
	if need := FrameSize(c.opts.Format, c.opts.Width, c.opts.Height); len(dst) < need {
		return fmt.Errorf("clahe: dst frame too short: got %d bytes, want %d", len(dst), need)
	}
	y := make([]byte, n)
	if err := c.ConvertY(y, raw); err != nil {
		return err
	}
	Pack(dst, y, c.opts.Format, c.opts.Width, c.opts.Height)
	return nil
}

func (c *Converter) buildHistogram(samples []uint16) {
	for i := range c.hist {
		c.hist[i] = 0
	}
	for _, s := range samples {
		c.hist[s&(NBins-1)]++
	}
}

// rearrangeBins sweeps low to high, dropping bins
// under cutThresh by merging them into the next still-to-be-assigned
// compact bin, and map any trailing invalid bins to the last compact index.
func (c *Converter) rearrangeBins() {
	compactIdx := uint32(0)
	lastValidSlot := -1
	for raw := 0; raw < NBins; raw++ {
		if c.hist[raw] >= c.opts.CutThresh {
			c.rearrange[raw] = compactIdx
			lastValidSlot = int(compactIdx)
			compactIdx++
		} else {
			// Attach to the compact bin that will be assigned next; if none
			// ever follows (trailing invalid run), this is corrected below.
			c.rearrange[raw] = compactIdx
		}
	}
	c.nValidBins = int(compactIdx)
	if c.nValidBins == 0 {
		// Degenerate all-below-threshold frame: everything collapses to bin 0.
		c.nValidBins = 1
		for raw := range c.rearrange {
			c.rearrange[raw] = 0
		}
	}
	// Any raw bin that pointed past the last assigned compact bin (trailing
	// invalid run with no following valid bin) maps to the last valid index.
	for raw := 0; raw < NBins; raw++ {
		if int(c.rearrange[raw]) >= c.nValidBins {
			c.rearrange[raw] = uint32(lastValidSlot)
		}
	}

	c.compact = make([]uint64, c.nValidBins)
	for raw := 0; raw < NBins; raw++ {
		c.compact[c.rearrange[raw]] += c.hist[raw]
	}
}

// clipAndRedistribute clips the histogram and redistributes the excess.
func (c *Converter) clipAndRedistribute() {
	n := c.nValidBins
	if n == 0 {
		return
	}
	total := uint64(c.opts.Width * c.opts.Height)
	clipLevel := uint64(c.opts.ClipLimit * float64(total) / float64(n))
	if clipLevel == 0 {
		clipLevel = 1
	}

	saturated := make([]bool, n)
	for iter := 0; iter < 32; iter++ {
		var excess uint64
		for i := 0; i < n; i++ {
			if c.compact[i] > clipLevel {
				excess += c.compact[i] - clipLevel
				c.compact[i] = clipLevel
				saturated[i] = true
			}
		}
		if excess == 0 {
			break
		}
		unsaturated := 0
		for i := 0; i < n; i++ {
			if !saturated[i] {
				unsaturated++
			}
		}
		if unsaturated == 0 {
			// Nowhere left to put the excess; spread it back uniformly and stop.
			share := excess / uint64(n)
			rem := excess % uint64(n)
			for i := 0; i < n; i++ {
				c.compact[i] += share
				if uint64(i) < rem {
					c.compact[i]++
				}
			}
			break
		}
		share := excess / uint64(unsaturated)
		rem := excess % uint64(unsaturated)
		var given uint64
		for i := 0; i < n; i++ {
			if saturated[i] {
				continue
			}
			inc := share
			if given < rem {
				inc++
			}
			given++
			c.compact[i] += inc
		}
		if share == 0 && rem == 0 {
			break // redistribution stalled
		}
	}
}

func (c *Converter) buildStretchMap(nPixels int) {
	c.stretchMap = make([]byte, c.nValidBins)
	var accum uint64
	scale := 255.0 / float64(nPixels)
	for i := 0; i < c.nValidBins; i++ {
		accum += c.compact[i]
		v := int(scale * float64(accum))
		if v > 255 {
			v = 255
		}
		c.stretchMap[i] = byte(v)
	}
}

func (c *Converter) apply(y []byte, samples []uint16) {
	for i, s := range samples {
		y[i] = c.stretchMap[c.rearrange[s&(NBins-1)]]
	}
}
