package fusion

import (
	"time"

	"github.com/intuitionamiga/irfusion/internal/ring"
)

// putFrameCtx enforces frame atomicity on top of the raw ring.Ring
// primitive, which may otherwise perform a torn short write: it only calls
// Put once the whole frame fits, blocking (BlockOnFull, for deterministic
// tests) or dropping-and-logging otherwise, matching the pipeline's
// lossy-under-backpressure policy. Mirrors internal/bezier's helper of the
// same name and purpose, kept local here since each package owns its own
// ring wiring.
func putFrameCtx(r *ring.Ring, frame []byte, frameSize int, blockOnFull bool, log *Logger, ringName string, stopped func() bool) bool {
	for {
		if r.Capacity()-r.Len() >= frameSize {
			return r.Put(frame[:frameSize]) == frameSize
		}
		if !blockOnFull || stopped == nil || stopped() {
			log.Logf("%s full, dropping frame", ringName)
			return false
		}
		time.Sleep(idleBackoff)
	}
}
