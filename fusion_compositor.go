package fusion

import (
	"time"

	"github.com/intuitionamiga/irfusion/internal/pixel"
	"github.com/intuitionamiga/irfusion/internal/ring"
)

// compositorStage implements bright-feature extraction,
// refinement, adaptive suppression, and the final overlay onto the
// registered visible frame.
type compositorStage struct {
	width, height int
	ngls          int
	ssr           float64
	bpr           float64
	style         Style
	chromaSize    int

	gsciIn *ring.Ring // luma plane from the IR preprocess stage
	regtIn *ring.Ring // full regt frame (Y+U+V) from the visible preprocess stage
	bkgGet func([]byte) bool

	fusedOut  *ring.Ring // full fused frame (Y+U+V)
	brightOut *ring.Ring // bright-feature tap

	log         *Logger
	blockOnFull bool
}

// newCompositorStage wires directly into the upstream stages' output
// rings (gsciIn, regtIn) rather than allocating its own — a ring is
// strictly single-producer/single-consumer, so the compositor
// must share the very ring instances the IR and visible preprocess stages
// publish into.
func newCompositorStage(opts Options, gsciIn, regtIn *ring.Ring, log *Logger) *compositorStage {
	n := opts.BaseWidth * opts.BaseHeight
	chroma := n / 4
	frameSize := n + 2*chroma
	return &compositorStage{
		width:       opts.BaseWidth,
		height:      opts.BaseHeight,
		ngls:        opts.NGLS,
		ssr:         opts.SSR,
		bpr:         opts.BPR,
		style:       opts.Style,
		chromaSize:  chroma,
		gsciIn:      gsciIn,
		regtIn:      regtIn,
		fusedOut:    ring.New(frameSize * 3),
		brightOut:   ring.New(n * 2),
		log:         log,
		blockOnFull: opts.BlockOnFull,
	}
}

func (s *compositorStage) getFused(dst []byte) bool {
	n := s.width*s.height + 2*s.chromaSize
	if len(dst) < n {
		return false
	}
	return s.fusedOut.Get(dst[:n]) == n
}

func (s *compositorStage) getBright(dst []byte) bool {
	n := s.width * s.height
	if len(dst) < n {
		return false
	}
	return s.brightOut.Get(dst[:n]) == n
}

func (s *compositorStage) run(stopped func() bool) {
	n := s.width * s.height
	frameSize := n + 2*s.chromaSize

	gsci := make([]byte, n)
	regt := make([]byte, frameSize)
	bkg := make([]byte, n)

	bright := make([]byte, n)
	etbk := make([]byte, n)
	refined := make([]byte, n)
	usfn := make([]uint16, n)
	suppressed := make([]byte, n)
	fused := make([]byte, frameSize)

	for !stopped() {
		if s.gsciIn.Get(gsci) != n {
			time.Sleep(idleBackoff)
			continue
		}
		for s.regtIn.Get(regt) != frameSize {
			if stopped() {
				return
			}
			time.Sleep(idleBackoff)
		}
		for !s.bkgGet(bkg) {
			if stopped() {
				return
			}
			time.Sleep(idleBackoff)
		}

		regtY := regt[:n]

		pixel.SubSaturate(bright, gsci, bkg)
		pixel.SubSaturate(etbk, regtY, gsci)
		pixel.SubSaturate(refined, bright, etbk)
		pixel.AddWiden(usfn, regtY, refined)

		sr := suppressionRatio(usfn, s.ngls, s.bpr, s.ssr)
		pixel.MulScalarSaturate(suppressed, refined, sr)
		pixel.AddSaturate(fused[:n], regtY, suppressed)

		if s.style == StyleColor {
			copy(fused[n:], regt[n:])
		} else {
			for i := n; i < frameSize; i++ {
				fused[i] = 0x80
			}
		}

		putFrameCtx(s.fusedOut, fused, frameSize, s.blockOnFull, s.log, "compositor.fusedOut", stopped)
		putFrameCtx(s.brightOut, bright, n, s.blockOnFull, s.log, "compositor.brightOut", stopped)
	}
}

// suppressionRatio computes the adaptive suppression ratio. ngls is the histogram bin
// count (one bin per raw 16-bit usfn value when ngls == 65536). The walk
// from highest to lowest bin uses a signed loop variable: the source's
// unsigned counter decremented past zero is an Open Question flagged as a
// wraparound hazard, avoided here entirely.
func suppressionRatio(usfn []uint16, ngls int, bpr, ssr float64) float64 {
	hist := make([]uint64, ngls)
	for _, v := range usfn {
		b := int(v)
		if b >= ngls {
			b = ngls - 1
		}
		hist[b]++
	}

	threshold := uint64(bpr * float64(len(usfn)))
	var count, weighted uint64
	for bin := ngls - 1; bin >= 0; bin-- {
		c := hist[bin]
		if c == 0 {
			continue
		}
		count += c
		weighted += c * uint64(bin)
		if count >= threshold {
			break
		}
	}
	if count == 0 {
		return ssr
	}
	mean := float64(weighted) / float64(count)
	if mean <= 0 {
		return ssr
	}
	sr := 255.0 / mean
	if sr > ssr {
		sr = ssr
	}
	return sr
}
