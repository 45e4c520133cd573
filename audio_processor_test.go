package transcode

import "testing"

func TestRingBufferWriteReadFrame(t *testing.T) {
	r := newAudioRingBuffer(4, 2) // capacity = 32 samples
	samples := []float32{1, 2, 3, 4, 5, 6}
	if err := r.write(samples); err != nil {
		t.Fatalf("write() = %v, want nil", err)
	}
	if r.available() != 6 {
		t.Fatalf("available() = %d, want 6", r.available())
	}

	buf := make([]float32, 4)
	if !r.readFrame(buf) {
		t.Fatal("readFrame() = false, want true")
	}
	for i, want := range []float32{1, 2, 3, 4} {
		if buf[i] != want {
			t.Errorf("buf[%d] = %v, want %v", i, buf[i], want)
		}
	}
	if r.available() != 2 {
		t.Errorf("available() = %d, want 2", r.available())
	}
}

func TestRingBufferReadFrameAllOrNothing(t *testing.T) {
	r := newAudioRingBuffer(4, 2)
	r.write([]float32{1, 2, 3})

	buf := make([]float32, 4)
	if r.readFrame(buf) {
		t.Fatal("readFrame() = true with insufficient samples, want false")
	}
	if r.available() != 3 {
		t.Errorf("available() = %d after failed readFrame, want unchanged 3", r.available())
	}
}

func TestRingBufferOverflowRejected(t *testing.T) {
	r := newAudioRingBuffer(2, 1) // capacity = 8 samples
	if err := r.write(make([]float32, 8)); err != nil {
		t.Fatalf("write() at exact capacity = %v, want nil", err)
	}
	if err := r.write([]float32{1}); err == nil {
		t.Fatal("write() beyond capacity = nil, want error")
	}
}

func TestRingBufferDrainAllPartial(t *testing.T) {
	r := newAudioRingBuffer(4, 2)
	r.write([]float32{9, 8, 7})

	buf := make([]float32, 4)
	n := r.drainAll(buf)
	if n != 3 {
		t.Fatalf("drainAll() = %d, want 3", n)
	}
	for i, want := range []float32{9, 8, 7} {
		if buf[i] != want {
			t.Errorf("buf[%d] = %v, want %v", i, buf[i], want)
		}
	}
	if r.available() != 0 {
		t.Errorf("available() after drainAll = %d, want 0", r.available())
	}
}

func TestRingBufferWrapsAroundCorrectly(t *testing.T) {
	r := newAudioRingBuffer(2, 1) // capacity 8
	r.write([]float32{1, 2, 3, 4, 5, 6})
	out := make([]float32, 6)
	r.drainAll(out)
	r.write([]float32{7, 8, 9, 10})

	buf := make([]float32, 4)
	if !r.readFrame(buf) {
		t.Fatal("readFrame() after wraparound = false, want true")
	}
	for i, want := range []float32{7, 8, 9, 10} {
		if buf[i] != want {
			t.Errorf("buf[%d] = %v, want %v", i, buf[i], want)
		}
	}
}

func TestApplyGainScalesAllPlanes(t *testing.T) {
	f := NewAudioFrame(48000, 2, 4)
	for ch := range f.Planes {
		for i := range f.Planes[ch] {
			f.Planes[ch][i] = 1.0
		}
	}
	applyGain(f, 0.5)
	for ch := range f.Planes {
		for i, v := range f.Planes[ch] {
			if v != 0.5 {
				t.Errorf("Planes[%d][%d] = %v, want 0.5", ch, i, v)
			}
		}
	}
}

func TestLowPassStatePersistsAcrossCalls(t *testing.T) {
	bank := newAudioFilterBank(nil, 1)
	f1 := NewAudioFrame(48000, 1, 2)
	f1.Planes[0][0] = 1
	f1.Planes[0][1] = 1
	bank.applyLowPass(f1, 0.5)
	if bank.lpState[0] == 0 {
		t.Fatal("lpState did not accumulate after first call")
	}
	stateAfterFirst := bank.lpState[0]

	f2 := NewAudioFrame(48000, 1, 1)
	f2.Planes[0][0] = 0
	bank.applyLowPass(f2, 0.5)
	if bank.lpState[0] == stateAfterFirst {
		t.Error("lpState did not evolve on second call, state carry looks broken")
	}
}

func TestHighPassZeroesDCInput(t *testing.T) {
	bank := newAudioFilterBank(nil, 1)
	f := NewAudioFrame(48000, 1, 5)
	for i := range f.Planes[0] {
		f.Planes[0][i] = 3.0 // constant DC signal
	}
	bank.applyHighPass(f, 0.5)
	// After the first sample, a constant input should settle near zero.
	if abs32(f.Planes[0][4]) > 0.5 {
		t.Errorf("high-pass output on DC input did not attenuate: %v", f.Planes[0][4])
	}
}

func TestApplyCompressorClampsAboveThreshold(t *testing.T) {
	f := NewAudioFrame(48000, 1, 1)
	f.Planes[0][0] = 1.0
	applyCompressor(f, 0.5)
	want := float32(0.5 + (1.0-0.5)*0.25)
	if f.Planes[0][0] != want {
		t.Errorf("Planes[0][0] = %v, want %v", f.Planes[0][0], want)
	}
}

func TestApplyCompressorLeavesBelowThresholdUnchanged(t *testing.T) {
	f := NewAudioFrame(48000, 1, 1)
	f.Planes[0][0] = 0.2
	applyCompressor(f, 0.5)
	if f.Planes[0][0] != 0.2 {
		t.Errorf("Planes[0][0] = %v, want unchanged 0.2", f.Planes[0][0])
	}
}

func TestInterleaveDeinterleaveStandardRoundTrip(t *testing.T) {
	f := NewAudioFrame(48000, 2, 3)
	f.Planes[0] = []float32{1, 2, 3}
	f.Planes[1] = []float32{4, 5, 6}

	interleaved := interleaveStandard(f)
	want := []float32{1, 4, 2, 5, 3, 6}
	for i, v := range want {
		if interleaved[i] != v {
			t.Fatalf("interleaved[%d] = %v, want %v", i, interleaved[i], v)
		}
	}

	out := NewAudioFrame(48000, 2, 3)
	deinterleaveStandardInto(out, interleaved)
	for ch := range f.Planes {
		for i := range f.Planes[ch] {
			if out.Planes[ch][i] != f.Planes[ch][i] {
				t.Errorf("round trip mismatch ch=%d i=%d: %v != %v", ch, i, out.Planes[ch][i], f.Planes[ch][i])
			}
		}
	}
}

func TestApplyResampleIdentityRatioIsNoop(t *testing.T) {
	f := NewAudioFrame(48000, 1, 4)
	f.Planes[0] = []float32{1, 2, 3, 4}
	applyResample(f, 1.0)
	for i, want := range []float32{1, 2, 3, 4} {
		if f.Planes[0][i] != want {
			t.Errorf("Planes[0][%d] = %v, want %v (unchanged)", i, f.Planes[0][i], want)
		}
	}
}

func TestApplyResampleHoldsLastSampleAtTail(t *testing.T) {
	f := NewAudioFrame(48000, 1, 4)
	f.Planes[0] = []float32{0, 10, 20, 30}
	applyResample(f, 0.5) // compress: only the first two output samples map inside the source range
	if f.Planes[0][len(f.Planes[0])-1] != 30 {
		t.Errorf("last sample = %v, want held at 30", f.Planes[0][len(f.Planes[0])-1])
	}
}

func TestApplyResampleInterpolatesBetweenSamples(t *testing.T) {
	f := NewAudioFrame(48000, 1, 4)
	f.Planes[0] = []float32{0, 4, 8, 12}
	applyResample(f, 2.0) // stretch: index 1 should land halfway between src[0] and src[1]
	if f.Planes[0][1] != 2 {
		t.Errorf("Planes[0][1] = %v, want 2 (interpolated)", f.Planes[0][1])
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
