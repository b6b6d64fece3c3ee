package fusion

import (
	"time"

	"github.com/intuitionamiga/irfusion/internal/clahe"
	"github.com/intuitionamiga/irfusion/internal/ring"
)

// irPreprocessStage wraps an internal/clahe Converter as the first pipeline
// stage: it drains raw IR frames, reduces each to an 8-bit luma plane for
// the compositor and the background reconstructor, and separately packs a
// display-format copy for the GetInfraredGSCI tap.
type irPreprocessStage struct {
	conv          *clahe.Converter
	format        clahe.Format
	width, height int
	rawFrameSize  int
	packedSize    int

	in      *ring.Ring // raw IR frames
	yOut    *ring.Ring // luma plane, feeds the compositor
	tapOut  *ring.Ring // packed display-format frame, feeds GetInfraredGSCI
	reconIn func([]byte) bool

	log         *Logger
	blockOnFull bool
	stopped     func() bool
}

func newIRPreprocessStage(opts Options, log *Logger) (*irPreprocessStage, error) {
	clOpts := clahe.Options{
		Width:     opts.BaseWidth,
		Height:    opts.BaseHeight,
		Format:    opts.RawFormat,
		CutThresh: opts.CutThresh,
		ClipLimit: opts.ClipLimit,
	}
	conv, err := clahe.New(clOpts)
	if err != nil {
		return nil, err
	}
	n := opts.BaseWidth * opts.BaseHeight
	packed := clahe.FrameSize(opts.RawFormat, opts.BaseWidth, opts.BaseHeight)
	return &irPreprocessStage{
		conv:         conv,
		format:       opts.RawFormat,
		width:        opts.BaseWidth,
		height:       opts.BaseHeight,
		rawFrameSize: 2 * n,
		packedSize:   packed,
		in:           ring.New(2 * n * 3),
		yOut:         ring.New(n * 3),
		tapOut:       ring.New(packed * 2),
		log:          log,
		blockOnFull:  opts.BlockOnFull,
		stopped:      func() bool { return false },
	}, nil
}

func (s *irPreprocessStage) put(raw []byte) bool {
	return putFrameCtx(s.in, raw, s.rawFrameSize, s.blockOnFull, s.log, "irPreprocess.in", s.stopped)
}

func (s *irPreprocessStage) getTap(dst []byte) bool {
	if len(dst) < s.packedSize {
		return false
	}
	return s.tapOut.Get(dst[:s.packedSize]) == s.packedSize
}

// run is the stage's worker loop: read one raw frame, convert, fan out a
// luma copy to the compositor/reconstructor and a packed copy to the tap.
func (s *irPreprocessStage) run(stopped func() bool) {
	raw := make([]byte, s.rawFrameSize)
	y := make([]byte, s.width*s.height)
	packed := make([]byte, s.packedSize)
	for !stopped() {
		if s.in.Get(raw) != s.rawFrameSize {
			time.Sleep(idleBackoff)
			continue
		}
		if err := s.conv.ConvertY(y, raw); err != nil {
			s.log.Logf("IR preprocess: %v", err)
			continue
		}
		putFrameCtx(s.yOut, y, len(y), s.blockOnFull, s.log, "irPreprocess.yOut", stopped)
		if s.reconIn != nil {
			s.reconIn(y)
		}
		clahe.Pack(packed, y, s.format, s.width, s.height)
		putFrameCtx(s.tapOut, packed, s.packedSize, s.blockOnFull, s.log, "irPreprocess.tapOut", stopped)
	}
}
