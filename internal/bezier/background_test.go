package bezier

import (
	"testing"
	"time"

	"github.com/intuitionamiga/irfusion/internal/plog"
)

func TestReconstructorRoundTrip(t *testing.T) {
	const w, h = 32, 32
	r := New(w, h, DefaultOptions(), plog.New("test", nil))
	r.Start()
	defer r.Stop()

	gsci := make([]byte, w*h)
	for i := range gsci {
		gsci[i] = byte((i * 7) % 256)
	}
	if !r.Put(gsci) {
		t.Fatal("Put returned false on empty ring")
	}

	out := make([]byte, w*h)
	deadline := time.Now().Add(2 * time.Second)
	got := false
	for time.Now().Before(deadline) {
		if r.Get(out) {
			got = true
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !got {
		t.Fatal("no reconstructed background frame arrived within deadline")
	}
	if len(out) != w*h {
		t.Fatalf("frame size = %d, want %d", len(out), w*h)
	}
}

func TestReconstructorStopIsIdempotentAndPrompt(t *testing.T) {
	r := New(16, 16, DefaultOptions(), plog.New("test", nil))
	r.Start()
	start := time.Now()
	r.Stop()
	r.Stop()
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("two Stop calls took %v, want well under the 1s grace period plus slack", elapsed)
	}
}
