package histogram

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/auricle-audio/mastergo/pkg/shm"
)

func sessionName(suffix string) string {
	return fmt.Sprintf("t%d-%s", os.Getpid(), suffix)
}

func TestCreateSessionRejectsBadCapacity(t *testing.T) {
	for _, capacity := range []int{0, 1, 3, 100} {
		_, err := CreateSession(sessionName("badcap"), capacity)
		if !errors.Is(err, shm.ErrAllocation) {
			t.Errorf("capacity %d: err = %v, want ErrAllocation", capacity, err)
		}
	}
}

func TestConnectSessionNotFound(t *testing.T) {
	_, err := ConnectSession(sessionName("nonexistent"))
	if !errors.Is(err, shm.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestConnectSessionIncompatible(t *testing.T) {
	// A region too small to be a session: the header claims no valid
	// power-of-two capacity.
	name := sessionName("garbage")
	region, err := shm.Create(name, 64)
	if err != nil {
		t.Fatalf("shm.Create: %v", err)
	}
	defer region.Close()

	_, err = ConnectSession(name)
	if !errors.Is(err, ErrIncompatible) {
		t.Errorf("err = %v, want ErrIncompatible", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	name := sessionName("roundtrip")
	producer, err := CreateSession(name, 16)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	defer producer.Teardown()

	consumer, err := ConnectSession(name)
	if err != nil {
		t.Fatalf("ConnectSession: %v", err)
	}
	defer consumer.Teardown()

	if consumer.Capacity() != 16 {
		t.Errorf("consumer capacity = %d, want 16", consumer.Capacity())
	}

	producer.In().Write(-23.0)
	producer.Out().Write(-20.0)

	if s, ok := consumer.In().TryRead(); !ok || s != -23.0 {
		t.Errorf("consumer In = %f, %v; want -23, true", s, ok)
	}
	if s, ok := consumer.Out().TryRead(); !ok || s != -20.0 {
		t.Errorf("consumer Out = %f, %v; want -20, true", s, ok)
	}

	consumer.SignalClosed()
	if !producer.IsClosed() {
		t.Error("producer does not observe the consumer's closed flag")
	}
}

// TestSessionLifecycle walks the full producer/consumer exchange over one
// session: windowed flushes reach the consumer, close suppresses further
// writes while peaks accumulate, and a fresh session starts clean.
func TestSessionLifecycle(t *testing.T) {
	name := sessionName("demo")
	producer, err := CreateSession(name, 8)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	agg := NewAggregator()
	agg.AttachChannel(producer)

	consumer, err := ConnectSession(name)
	if err != nil {
		t.Fatalf("ConnectSession: %v", err)
	}

	// One full window at -20 in / -18 out produces exactly one pair.
	agg.Observe(1024, -20.0, -18.0)

	in := consumer.In().DrainAll()
	out := consumer.Out().DrainAll()
	if len(in) != 1 || in[0] != -20.0 {
		t.Fatalf("consumer in = %v, want [-20]", in)
	}
	if len(out) != 1 || out[0] != -18.0 {
		t.Fatalf("consumer out = %v, want [-18]", out)
	}

	// Consumer leaves. The producer's next full window updates no ring
	// but its peaks keep rising.
	consumer.SignalClosed()
	if err := consumer.Teardown(); err != nil {
		t.Fatalf("consumer Teardown: %v", err)
	}

	agg.Observe(1024, -5.0, -5.0)
	if got := producer.In().Len(); got != 0 {
		t.Errorf("ring holds %d samples after close, want 0", got)
	}
	if agg.Active() {
		t.Error("aggregator still active after close")
	}
	if agg.peakIn != -5.0 {
		t.Errorf("suppressed peak = %f, want -5", agg.peakIn)
	}

	// The producer rotates to a fresh session; nothing was lost to a
	// crash, the suppressed accumulation is discarded by policy.
	if err := producer.Teardown(); err != nil {
		t.Fatalf("producer Teardown: %v", err)
	}
	producer2, err := CreateSession(sessionName("demo2"), 8)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	defer producer2.Teardown()
	agg.AttachChannel(producer2)

	agg.Observe(1024, -21.0, -19.0)

	consumer2, err := ConnectSession(sessionName("demo2"))
	if err != nil {
		t.Fatalf("ConnectSession: %v", err)
	}
	defer consumer2.Teardown()

	in = consumer2.In().DrainAll()
	if len(in) != 1 || in[0] != -21.0 {
		t.Errorf("fresh session in = %v, want [-21] only", in)
	}
}
