package bus

import "testing"

func TestStereoConfiguration(t *testing.T) {
	cfg := NewStereoConfiguration()

	if got := cfg.BusCount(DirectionInput); got != 1 {
		t.Errorf("input bus count = %d, want 1", got)
	}
	if got := cfg.BusCount(DirectionOutput); got != 1 {
		t.Errorf("output bus count = %d, want 1", got)
	}
	if got := cfg.ChannelCount(DirectionInput); got != 2 {
		t.Errorf("input channels = %d, want 2", got)
	}
	if got := cfg.ChannelCount(DirectionOutput); got != 2 {
		t.Errorf("output channels = %d, want 2", got)
	}
}

func TestBusInfo(t *testing.T) {
	cfg := NewStereoConfiguration()

	info := cfg.BusInfo(DirectionInput, 0)
	if info == nil {
		t.Fatal("no input bus at index 0")
	}
	if info.Name != "Stereo In" || !info.IsActive {
		t.Errorf("input bus = %+v", info)
	}

	if cfg.BusInfo(DirectionInput, 1) != nil {
		t.Error("unexpected second input bus")
	}
	if cfg.BusInfo(DirectionOutput, 5) != nil {
		t.Error("unexpected output bus at index 5")
	}
}
