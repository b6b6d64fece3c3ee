package fusion

import "errors"

// Error taxonomy for the pipeline. Transient pipeline pressure (short ring
// reads/writes) is recovered locally by the stage workers and never
// surfaces as one of these — it is only ever logged.
var (
	// ErrConfiguration marks a fatal error detected by Validate, or by
	// NewFusion when the affine solver rejects the control points, before
	// any buffer is allocated or worker spawned.
	ErrConfiguration = errors.New("fusion: configuration error")

	// ErrResourceExhaustion marks a failure during NewFusion to build or
	// load the interpolation table or to construct a stage.
	ErrResourceExhaustion = errors.New("fusion: resource exhaustion")

	// ErrNotRunning is returned by Stop when the pipeline is not running:
	// before Start, or after a previous Stop.
	ErrNotRunning = errors.New("fusion: pipeline is not running")
)
