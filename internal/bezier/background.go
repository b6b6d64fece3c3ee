// Package bezier implements the background reconstructor: a
// min filter, a quadtree decomposition, per-blob bicubic Bézier patch
// synthesis, and a final Gaussian smoothing pass. Internally it is itself a
// small concurrent pipeline — the min-filter and quadtree-decompose stages
// run in parallel, each on its own ring buffer, and are joined in the
// patch-synthesis stage once both have produced their half of the frame.
package bezier

import (
	"encoding/binary"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/intuitionamiga/irfusion/internal/imgbuf"
	"github.com/intuitionamiga/irfusion/internal/plog"
	"github.com/intuitionamiga/irfusion/internal/quadtree"
	"github.com/intuitionamiga/irfusion/internal/ring"
)

// idleBackoff is the sleep used after a short ring read.
const idleBackoff = 3 * time.Millisecond

// Options configures a Reconstructor.
type Options struct {
	MinFilterRadius int // floor(mf_size/2); default mf_size=11 -> 5
	GaussianSigma   float64
	Thresholds      quadtree.Thresholds
	BlockOnFull     bool // deterministic test-mode variant: block instead of drop
}

// DefaultOptions returns the default background-reconstruction options.
func DefaultOptions() Options {
	return Options{
		MinFilterRadius: 5,
		GaussianSigma:   4.5,
		Thresholds:      quadtree.DefaultThresholds(),
	}
}

const blobWireSize = 20 // 5 x int32: top, left, bottom, right, range

// Reconstructor owns the background-reconstruction sub-pipeline: one input
// ring fed gsci frames by the orchestrator, and one output ring the
// orchestrator drains for the reconstructed background.
type Reconstructor struct {
	width, height int
	frameSize     int
	opts          Options
	log           *plog.Logger

	in       *ring.Ring // gsci frames in, fed by the caller
	inMF     *ring.Ring // fan-out copy routed to the min-filter worker
	inQT     *ring.Ring // fan-out copy routed to the quadtree worker
	minRing  *ring.Ring // min-filtered plane out
	leafRing *ring.Ring // length-prefixed serialized leaf blobs out
	out      *ring.Ring // reconstructed background out

	stopFlag atomic.Bool
	wg       sync.WaitGroup
}

// New creates a Reconstructor for width x height gsci frames. Call Start to
// spawn its internal workers before feeding it frames with Put.
func New(width, height int, opts Options, log *plog.Logger) *Reconstructor {
	frameSize := width * height
	maxLeaves := quadtree.MaxLeaves(width, height, opts.Thresholds)
	leafMsgSize := 4 + maxLeaves*blobWireSize

	return &Reconstructor{
		width:     width,
		height:    height,
		frameSize: frameSize,
		opts:      opts,
		log:       log,
		in:        ring.New(frameSize * 3),
		inMF:      ring.New(frameSize * 2),
		inQT:      ring.New(frameSize * 2),
		minRing:   ring.New(frameSize * 2),
		leafRing:  ring.New(leafMsgSize * 2),
		out:       ring.New(frameSize * 3),
	}
}

// Put enqueues one gsci frame for reconstruction. Returns false if the
// input ring was full (the frame is dropped, per the lossy-on-full policy).
func (r *Reconstructor) Put(gsci []byte) bool {
	return putFrameCtx(r.in, gsci, r.frameSize, r.opts.BlockOnFull, r.log, "Reconstructor.in", r.stopped)
}

// Get dequeues one reconstructed background frame into dst. Returns false
// if no frame was available.
func (r *Reconstructor) Get(dst []byte) bool {
	if len(dst) < r.frameSize {
		return false
	}
	return r.out.Get(dst[:r.frameSize]) == r.frameSize
}

// Start spawns the reconstructor's four internal workers: intake (fan-out),
// min-filter, quadtree-decompose, and the Bézier-join stage.
func (r *Reconstructor) Start() {
	r.wg.Add(4)
	go r.intakeLoop()
	go r.minFilterLoop()
	go r.quadtreeLoop()
	go r.joinLoop()
}

// Stop signals every internal worker to exit and waits briefly for them to
// drain their current iteration.
func (r *Reconstructor) Stop() {
	r.stopFlag.Store(true)
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

func (r *Reconstructor) stopped() bool { return r.stopFlag.Load() }

func (r *Reconstructor) intakeLoop() {
	defer r.wg.Done()
	buf := make([]byte, r.frameSize)
	for !r.stopped() {
		if r.in.Get(buf) != r.frameSize {
			time.Sleep(idleBackoff)
			continue
		}
		putFrameCtx(r.inMF, buf, r.frameSize, r.opts.BlockOnFull, r.log, "Reconstructor.inMF", r.stopped)
		putFrameCtx(r.inQT, buf, r.frameSize, r.opts.BlockOnFull, r.log, "Reconstructor.inQT", r.stopped)
	}
}

func (r *Reconstructor) minFilterLoop() {
	defer r.wg.Done()
	buf := make([]byte, r.frameSize)
	for !r.stopped() {
		if r.inMF.Get(buf) != r.frameSize {
			time.Sleep(idleBackoff)
			continue
		}
		src, err := imgbuf.NewView(r.width, r.height, r.width, buf)
		if err != nil {
			r.log.Logf("min-filter: %v", err)
			continue
		}
		filtered := MinFilter(src, r.opts.MinFilterRadius)
		putFrameCtx(r.minRing, filtered.Pix, r.frameSize, r.opts.BlockOnFull, r.log, "Reconstructor.minRing", r.stopped)
	}
}

func (r *Reconstructor) quadtreeLoop() {
	defer r.wg.Done()
	buf := make([]byte, r.frameSize)
	for !r.stopped() {
		if r.inQT.Get(buf) != r.frameSize {
			time.Sleep(idleBackoff)
			continue
		}
		rect := quadtree.Rect{Top: 0, Left: 0, Bottom: r.height, Right: r.width}
		sample := func(x, y int) byte { return buf[y*r.width+x] }
		tree := quadtree.Decompose(rect, sample, r.opts.Thresholds)
		msg := encodeBlobs(tree.Leaves())
		if r.leafRing.Capacity()-r.leafRing.Len() < len(msg) {
			if r.opts.BlockOnFull {
				for r.leafRing.Capacity()-r.leafRing.Len() < len(msg) && !r.stopped() {
					time.Sleep(idleBackoff)
				}
			} else {
				r.log.Logf("dropping leaf set, ring full")
				continue
			}
		}
		r.leafRing.Put(msg)
	}
}

func (r *Reconstructor) joinLoop() {
	defer r.wg.Done()
	minBuf := make([]byte, r.frameSize)
	header := make([]byte, 4)
	for !r.stopped() {
		if r.minRing.Get(minBuf) != r.frameSize {
			time.Sleep(idleBackoff)
			continue
		}
		leaves := r.waitForLeaves(header)
		if leaves == nil {
			continue
		}

		minFiltered, err := imgbuf.NewView(r.width, r.height, r.width, minBuf)
		if err != nil {
			r.log.Logf("patch synthesis: %v", err)
			continue
		}
		mosaic := imgbuf.New(r.width, r.height)
		synthesizePatchesParallel(minFiltered, leaves, mosaic)

		blurred := GaussianBlur(mosaic, r.opts.GaussianSigma)
		putFrameCtx(r.out, blurred.Pix, r.frameSize, r.opts.BlockOnFull, r.log, "Reconstructor.out", r.stopped)
	}
}

// waitForLeaves reads one length-prefixed leaf message, retrying on short
// reads until the stop flag is observed.
func (r *Reconstructor) waitForLeaves(header []byte) []quadtree.Blob {
	for !r.stopped() {
		if r.leafRing.Get(header) != 4 {
			time.Sleep(idleBackoff)
			continue
		}
		n := binary.LittleEndian.Uint32(header)
		payload := make([]byte, n)
		for r.leafRing.Get(payload) != int(n) {
			if r.stopped() {
				return nil
			}
			time.Sleep(idleBackoff)
		}
		return decodeBlobs(payload)
	}
	return nil
}

func synthesizePatchesParallel(minFiltered imgbuf.Frame, leaves []quadtree.Blob, dst imgbuf.Frame) {
	workers := runtime.GOMAXPROCS(0)
	if workers > len(leaves) {
		workers = len(leaves)
	}
	if workers <= 1 {
		for _, b := range leaves {
			SynthesizePatch(minFiltered, b, dst)
		}
		return
	}

	var wg sync.WaitGroup
	var next atomic.Int64
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				idx := next.Add(1) - 1
				if int(idx) >= len(leaves) {
					return
				}
				SynthesizePatch(minFiltered, leaves[idx], dst)
			}
		}()
	}
	wg.Wait()
}

func encodeBlobs(blobs []quadtree.Blob) []byte {
	payload := make([]byte, len(blobs)*blobWireSize)
	for i, b := range blobs {
		off := i * blobWireSize
		binary.LittleEndian.PutUint32(payload[off:], uint32(int32(b.Rect.Top)))
		binary.LittleEndian.PutUint32(payload[off+4:], uint32(int32(b.Rect.Left)))
		binary.LittleEndian.PutUint32(payload[off+8:], uint32(int32(b.Rect.Bottom)))
		binary.LittleEndian.PutUint32(payload[off+12:], uint32(int32(b.Rect.Right)))
		binary.LittleEndian.PutUint32(payload[off+16:], uint32(int32(b.Range)))
	}
	msg := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(msg, uint32(len(payload)))
	copy(msg[4:], payload)
	return msg
}

func decodeBlobs(payload []byte) []quadtree.Blob {
	n := len(payload) / blobWireSize
	blobs := make([]quadtree.Blob, n)
	for i := 0; i < n; i++ {
		off := i * blobWireSize
		blobs[i] = quadtree.Blob{
			Rect: quadtree.Rect{
				Top:    int(int32(binary.LittleEndian.Uint32(payload[off:]))),
				Left:   int(int32(binary.LittleEndian.Uint32(payload[off+4:]))),
				Bottom: int(int32(binary.LittleEndian.Uint32(payload[off+8:]))),
				Right:  int(int32(binary.LittleEndian.Uint32(payload[off+12:]))),
			},
			Range: int(int32(binary.LittleEndian.Uint32(payload[off+16:]))),
		}
	}
	return blobs
}

// putFrameCtx enforces the frame-atomicity contract the raw Ring primitive
// does not: it only calls Put when the whole frame fits, so a single frame
// never gets torn across two deliveries. On insufficient room it either
// blocks (BlockOnFull, for deterministic tests) or drops and logs, matching
// the pipeline's lossy-under-backpressure policy.
func putFrameCtx(r *ring.Ring, frame []byte, frameSize int, blockOnFull bool, log *plog.Logger, ringName string, stopped func() bool) bool {
	for {
		if r.Capacity()-r.Len() >= frameSize {
			return r.Put(frame[:frameSize]) == frameSize
		}
		if !blockOnFull || stopped() {
			log.Logf("%s full, dropping frame", ringName)
			return false
		}
		time.Sleep(idleBackoff)
	}
}
