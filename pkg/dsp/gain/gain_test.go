package gain

import (
	"math"
	"testing"
)

func TestDbConversionRoundTrip(t *testing.T) {
	for _, db := range []float64{-60, -20, -6, 0, 6} {
		got := LinearToDb(DbToLinear(db))
		if math.Abs(got-db) > 1e-9 {
			t.Errorf("round trip of %v dB = %v", db, got)
		}
	}
}

func TestDbConversionEdges(t *testing.T) {
	if got := LinearToDb(0); got != MinDB {
		t.Errorf("LinearToDb(0) = %v, want MinDB", got)
	}
	if got := LinearToDb(-1); got != MinDB {
		t.Errorf("LinearToDb(-1) = %v, want MinDB", got)
	}
	if got := DbToLinear(MinDB); got != 0 {
		t.Errorf("DbToLinear(MinDB) = %v, want 0", got)
	}
	if got := DbToLinear(0); got != 1.0 {
		t.Errorf("DbToLinear(0) = %v, want 1.0", got)
	}
}

func TestApplyDbBuffer(t *testing.T) {
	buf := []float32{1.0, -1.0, 0.5}
	ApplyDbBuffer(buf, -6.0)

	want := DbToLinear32(-6.0)
	if math.Abs(float64(buf[0]-want)) > 1e-6 {
		t.Errorf("buf[0] = %v, want %v", buf[0], want)
	}
	if math.Abs(float64(buf[1]+want)) > 1e-6 {
		t.Errorf("buf[1] = %v, want %v", buf[1], -want)
	}
}

func TestCopyWithGain(t *testing.T) {
	src := []float32{0.25, 0.5, 1.0}
	dst := make([]float32, len(src))
	Copy(dst, src, 2.0)

	for i := range src {
		if dst[i] != src[i]*2 {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], src[i]*2)
		}
	}
	if src[0] != 0.25 {
		t.Error("Copy modified the source buffer")
	}
}
