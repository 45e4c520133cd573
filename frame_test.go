package transcode

import "testing"

func TestVideoFrameCloneIsIndependent(t *testing.T) {
	f := NewI420Frame(4, 4)
	f.Data[0][0] = 7
	c := f.Clone()
	c.Data[0][0] = 9

	if f.Data[0][0] != 7 {
		t.Errorf("original mutated by clone: Data[0][0] = %d, want 7", f.Data[0][0])
	}
	if c.Width != f.Width || c.Height != f.Height || c.Format != f.Format {
		t.Errorf("clone shape mismatch: %+v vs %+v", c, f)
	}
}

func TestI420SizeMatchesNewI420Frame(t *testing.T) {
	f := NewI420Frame(16, 8)
	total := 0
	for _, plane := range f.Data {
		total += len(plane)
	}
	if got := I420Size(16, 8); got != total {
		t.Errorf("I420Size(16, 8) = %d, want %d", got, total)
	}
}

func TestAudioFrameCloneIsIndependent(t *testing.T) {
	f := NewAudioFrame(48000, 2, 1024)
	f.Planes[0][0] = 1.5
	c := f.Clone()
	c.Planes[0][0] = 2.5

	if f.Planes[0][0] != 1.5 {
		t.Errorf("original mutated by clone: Planes[0][0] = %v, want 1.5", f.Planes[0][0])
	}
	if c.Channels != 2 || c.NumSamples != 1024 || c.SampleRate != 48000 {
		t.Errorf("clone shape mismatch: %+v", c)
	}
}

func TestCompressedPacketClone(t *testing.T) {
	p := &CompressedPacket{Kind: StreamVideo, Data: []byte{1, 2, 3}, PTS: 10}
	c := p.Clone()
	c.Data[0] = 99
	if p.Data[0] != 1 {
		t.Errorf("original mutated by clone: Data[0] = %d, want 1", p.Data[0])
	}
}
