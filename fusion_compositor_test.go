package fusion

import "testing"

func TestSuppressionRatioBoundaryScenario(t *testing.T) {
	const n = 100 * 100
	usfn := make([]uint16, n)
	for i := 0; i < 10; i++ {
		usfn[i] = 300
	}
	sr := suppressionRatio(usfn, 65536, 0.001, 0.8)
	if sr != 0.8 {
		t.Errorf("sr = %g, want 0.8 (clamped at ssr)", sr)
	}
}

func TestSuppressionRatioMonotonicityWithBPR(t *testing.T) {
	const n = 1000
	usfn := make([]uint16, n)
	for i := 0; i < n; i++ {
		usfn[i] = uint16(i % 600)
	}
	srLow := suppressionRatio(usfn, 65536, 0.01, 10)
	srHigh := suppressionRatio(usfn, 65536, 0.2, 10)
	if srLow > srHigh {
		t.Errorf("reducing bpr should not increase sr: sr(bpr=0.01)=%g > sr(bpr=0.2)=%g", srLow, srHigh)
	}
}

func TestSuppressionRatioAllZeroUsesCeiling(t *testing.T) {
	usfn := make([]uint16, 100)
	sr := suppressionRatio(usfn, 65536, 0.001, 0.8)
	if sr != 0.8 {
		t.Errorf("sr = %g, want ssr ceiling for an all-zero frame", sr)
	}
}
