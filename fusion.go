// Package fusion implements a concurrent IR/visible image fusion pipeline:
// an IR raw-to-grayscale CLAHE preprocessor, an affine visible-image
// registration stage, a quadtree/Bézier background reconstructor, and a
// bright-feature extraction and adaptive-suppression compositor, wired
// together by bounded byte ring buffers and a single cooperative stop flag.
//
// The program entry point, raw-frame capture, and display/rendering are
// out of scope: this package exposes Put*/Get* for an external caller to
// drive.
package fusion

import (
	"fmt"
	"io"

	"github.com/intuitionamiga/irfusion/internal/bezier"
	"github.com/intuitionamiga/irfusion/internal/registration"
)

// Fusion is the pipeline controller. It exclusively owns every ring,
// buffer, the registration table, and the background reconstructor;
// workers borrow access through it but ownership never transfers.
type Fusion struct {
	opts Options
	log  *Logger

	ir    *irPreprocessStage
	vis   *visiblePreprocessStage
	comp  *compositorStage
	recon *bezier.Reconstructor

	orch orchestrator
}

// NewFusion validates opts, builds (or loads from cache) the registration
// table, and allocates every stage's buffers and rings, but spawns no
// workers — call Start for that. Returns ErrConfiguration if opts doesn't
// validate, ErrResourceExhaustion if a stage fails to construct.
func NewFusion(opts Options, logWriter io.Writer) (*Fusion, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	log := newLogger("Fusion", logWriter)

	fwd, err := registration.Solve(opts.ControlPoints)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	var lut *registration.LUT
	if opts.CacheDir != "" {
		lut, _, err = registration.LoadOrBuild(opts.CacheDir, fwd, opts.ControlPoints, opts.BaseWidth, opts.BaseHeight)
	} else {
		lut, err = registration.BuildLUT(fwd, opts.BaseWidth, opts.BaseHeight)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResourceExhaustion, err)
	}

	ir, err := newIRPreprocessStage(opts, newLogger("IRPreprocess", logWriter))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResourceExhaustion, err)
	}
	vis := newVisiblePreprocessStage(opts, lut, newLogger("VisiblePreprocess", logWriter))
	comp := newCompositorStage(opts, ir.yOut, vis.regtOut, newLogger("Compositor", logWriter))
	recon := newBackgroundStage(opts, newLogger("BkgReconstruct", logWriter))

	comp.bkgGet = recon.Get
	ir.reconIn = recon.Put

	f := &Fusion{
		opts:  opts,
		log:   log,
		ir:    ir,
		vis:   vis,
		comp:  comp,
		recon: recon,
	}
	ir.stopped = f.orch.stopped
	vis.stopped = f.orch.stopped
	return f, nil
}

// Start spawns every worker: the background reconstructor first (its
// internal intake loop must be ready before the IR preprocess stage starts
// feeding it), then the three top-level stage workers, in dependency
// order.
func (f *Fusion) Start() {
	f.recon.Start()
	f.orch.start(
		func(stopped func() bool) error { f.ir.run(stopped); return nil },
		func(stopped func() bool) error { f.vis.run(stopped); return nil },
		func(stopped func() bool) error { f.comp.run(stopped); return nil },
	)
}

// Stop sets the shared stop flag, waits a short grace period for every
// worker to exit, and stops the background reconstructor.
func (f *Fusion) Stop() error {
	err := f.orch.stop()
	f.recon.Stop()
	return err
}

// PutInfrared enqueues one raw IR frame (2 bytes/pixel). Returns false
// if the ring was full and the frame was dropped.
func (f *Fusion) PutInfrared(raw []byte) bool { return f.ir.put(raw) }

// PutVisible enqueues one raw visible YUV 4:2:0 frame.
func (f *Fusion) PutVisible(raw []byte) bool { return f.vis.put(raw) }

// GetFused dequeues one fused YUV 4:2:0 frame into dst. Returns false if
// none was available.
func (f *Fusion) GetFused(dst []byte) bool { return f.comp.getFused(dst) }

// GetInfraredGSCI dequeues one packed GSCI frame (display-format copy of
// the IR preprocess stage's output) into dst.
func (f *Fusion) GetInfraredGSCI(dst []byte) bool { return f.ir.getTap(dst) }

// GetRegisteredVisible dequeues one REGT frame (the visible image warped
// into base geometry) into dst.
func (f *Fusion) GetRegisteredVisible(dst []byte) bool { return f.vis.getTap(dst) }

// GetBrightFeature dequeues one bright-feature plane (gsci minus
// reconstructed background, saturated) into dst.
func (f *Fusion) GetBrightFeature(dst []byte) bool { return f.comp.getBright(dst) }
