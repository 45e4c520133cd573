package transcode

import "testing"

func TestAudioCodecRequiredFrameSize(t *testing.T) {
	cases := []struct {
		codec AudioCodec
		want  int
	}{
		{AudioCodecAC3, 1536},
		{AudioCodecAAC, 1024},
		{AudioCodecMP3, 1152},
		{AudioCodecUnknown, 0},
	}
	for _, c := range cases {
		if got := c.codec.RequiredFrameSize(); got != c.want {
			t.Errorf("%v.RequiredFrameSize() = %d, want %d", c.codec, got, c.want)
		}
	}
}

func TestVideoCodecString(t *testing.T) {
	if VideoCodecMPEG4.String() != "MPEG4" {
		t.Errorf("VideoCodecMPEG4.String() = %q, want MPEG4", VideoCodecMPEG4.String())
	}
	if VideoCodecUnknown.String() != "unknown" {
		t.Errorf("VideoCodecUnknown.String() = %q, want unknown", VideoCodecUnknown.String())
	}
}

func TestAudioCodecString(t *testing.T) {
	if AudioCodecAAC.String() != "AAC" {
		t.Errorf("AudioCodecAAC.String() = %q, want AAC", AudioCodecAAC.String())
	}
}
