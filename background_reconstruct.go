package fusion

import (
	"github.com/intuitionamiga/irfusion/internal/bezier"
)

// newBackgroundStage builds the background reconstructor with the options
// translated from the fusion-wide Options into bezier.Options.
func newBackgroundStage(opts Options, log *Logger) *bezier.Reconstructor {
	bOpts := bezier.Options{
		MinFilterRadius: opts.MinFilterSize / 2,
		GaussianSigma:   opts.GaussianSigma,
		Thresholds:      opts.Thresholds,
		BlockOnFull:     opts.BlockOnFull,
	}
	return bezier.New(opts.BaseWidth, opts.BaseHeight, bOpts, log)
}
