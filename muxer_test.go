package transcode

import "testing"

func TestHeadPTSUsesPacketPTSWhenPresent(t *testing.T) {
	pkt := &EncodedPacket{PTS: 42}
	if got := headPTS(pkt, 7); got != 42 {
		t.Errorf("headPTS() = %d, want 42", got)
	}
}

func TestHeadPTSSynthesizesFromRunningCountWhenAbsent(t *testing.T) {
	pkt := &EncodedPacket{PTS: -1}
	if got := headPTS(pkt, 7); got != 7 {
		t.Errorf("headPTS() = %d, want 7 (running count fallback)", got)
	}
}

func TestPTSSecondsRescales(t *testing.T) {
	if got := ptsSeconds(48000, 48000); got != 1.0 {
		t.Errorf("ptsSeconds(48000, 48000) = %v, want 1.0", got)
	}
	if got := ptsSeconds(24, 24); got != 1.0 {
		t.Errorf("ptsSeconds(24, 24) = %v, want 1.0", got)
	}
}

func TestPTSSecondsZeroRateFallsBackToRawPTS(t *testing.T) {
	if got := ptsSeconds(100, 0); got != 100.0 {
		t.Errorf("ptsSeconds(100, 0) = %v, want 100.0 (raw fallback)", got)
	}
}

func TestBoolToInt32(t *testing.T) {
	if boolToInt32(true) != 1 {
		t.Error("boolToInt32(true) != 1")
	}
	if boolToInt32(false) != 0 {
		t.Error("boolToInt32(false) != 0")
	}
}
