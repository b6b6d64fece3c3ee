package fusion

import (
	"time"

	"github.com/intuitionamiga/irfusion/internal/registration"
	"github.com/intuitionamiga/irfusion/internal/ring"
)

// visiblePreprocessStage wraps the internal/registration warp as the
// second pipeline stage: it drains raw visible YUV 4:2:0 semi-planar frames
// (a Y plane followed by one plane of interleaved U/V pairs) and resamples
// them into base (IR) geometry using a cached affine LUT.
type visiblePreprocessStage struct {
	lut                     *registration.LUT
	baseW, baseH            int
	unregW, unregH          int
	rawFrameSize            int
	regtFrameSize           int
	chromaSize              int

	in      *ring.Ring // raw visible frames
	regtOut *ring.Ring // full regt frame (Y+U+V), feeds the compositor
	tapOut  *ring.Ring // full regt frame, feeds GetRegisteredVisible

	log         *Logger
	blockOnFull bool
	stopped     func() bool
}

func newVisiblePreprocessStage(opts Options, lut *registration.LUT, log *Logger) *visiblePreprocessStage {
	unregN := opts.UnregWidth * opts.UnregHeight
	baseN := opts.BaseWidth * opts.BaseHeight
	chroma := baseN / 4
	regtSize := baseN + 2*chroma

	return &visiblePreprocessStage{
		lut:           lut,
		baseW:         opts.BaseWidth,
		baseH:         opts.BaseHeight,
		unregW:        opts.UnregWidth,
		unregH:        opts.UnregHeight,
		rawFrameSize:  unregN + unregN/2,
		regtFrameSize: regtSize,
		chromaSize:    chroma,
		in:            ring.New((unregN + unregN/2) * 3),
		regtOut:       ring.New(regtSize * 3),
		tapOut:        ring.New(regtSize * 2),
		log:           log,
		blockOnFull:   opts.BlockOnFull,
		stopped:       func() bool { return false },
	}
}

func (s *visiblePreprocessStage) put(raw []byte) bool {
	return putFrameCtx(s.in, raw, s.rawFrameSize, s.blockOnFull, s.log, "visiblePreprocess.in", s.stopped)
}

func (s *visiblePreprocessStage) getTap(dst []byte) bool {
	if len(dst) < s.regtFrameSize {
		return false
	}
	return s.tapOut.Get(dst[:s.regtFrameSize]) == s.regtFrameSize
}

func (s *visiblePreprocessStage) run(stopped func() bool) {
	raw := make([]byte, s.rawFrameSize)
	regt := make([]byte, s.regtFrameSize)
	baseN := s.baseW * s.baseH
	unregN := s.unregW * s.unregH
	srcU := make([]byte, (s.unregW/2)*(s.unregH/2))
	srcV := make([]byte, len(srcU))

	for !stopped() {
		if s.in.Get(raw) != s.rawFrameSize {
			time.Sleep(idleBackoff)
			continue
		}
		srcY := raw[:unregN]
		uv := raw[unregN:]
		for i := range srcU {
			srcU[i] = uv[2*i]
			srcV[i] = uv[2*i+1]
		}

		dstY := regt[:baseN]
		dstU := regt[baseN : baseN+s.chromaSize]
		dstV := regt[baseN+s.chromaSize:]
		for i := range dstU {
			dstU[i] = 0x80
			dstV[i] = 0x80
		}

		registration.Warp(s.lut, srcY, s.unregW, s.unregH, srcU, srcV, dstY, dstU, dstV)

		putFrameCtx(s.regtOut, regt, s.regtFrameSize, s.blockOnFull, s.log, "visiblePreprocess.regtOut", stopped)
		putFrameCtx(s.tapOut, regt, s.regtFrameSize, s.blockOnFull, s.log, "visiblePreprocess.tapOut", stopped)
	}
}
