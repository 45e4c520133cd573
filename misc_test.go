package transcode

import "testing"

func TestClampWithinRange(t *testing.T) {
	if got := clamp(5, 0, 10); got != 5 {
		t.Errorf("clamp(5, 0, 10) = %v, want 5", got)
	}
}

func TestClampBelowRange(t *testing.T) {
	if got := clamp(-1, 0, 10); got != 0 {
		t.Errorf("clamp(-1, 0, 10) = %v, want 0", got)
	}
}

func TestClampAboveRange(t *testing.T) {
	if got := clamp(11, 0, 10); got != 10 {
		t.Errorf("clamp(11, 0, 10) = %v, want 10", got)
	}
}

func TestClampByteBounds(t *testing.T) {
	cases := []struct {
		in   int
		want byte
	}{
		{-5, 0},
		{0, 0},
		{128, 128},
		{255, 255},
		{300, 255},
	}
	for _, c := range cases {
		if got := clampByte(c.in); got != c.want {
			t.Errorf("clampByte(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestErrCodecOpenFailedMentionsWhat(t *testing.T) {
	err := errCodecOpenFailed("h264")
	if err == nil {
		t.Fatal("errCodecOpenFailed() = nil, want error")
	}
	if err.Error() == "" {
		t.Fatal("errCodecOpenFailed().Error() is empty")
	}
}

func TestInterleaveChannelMajorLayout(t *testing.T) {
	f := NewAudioFrame(48000, 2, 3)
	f.Planes[0] = []float32{1, 2, 3}
	f.Planes[1] = []float32{4, 5, 6}

	out := interleaveChannelMajor(f)
	want := []float32{1, 2, 3, 4, 5, 6}
	if len(out) != len(want) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(want))
	}
	for i, v := range want {
		if out[i] != v {
			t.Errorf("out[%d] = %v, want %v", i, out[i], v)
		}
	}
}
