package transcode

import (
	"unsafe"

	"github.com/sirupsen/logrus"
)

// AudioDecoderStage consumes compressed audio packets and produces decoded
// planar-float frames, per §4.3.
type AudioDecoderStage struct {
	codecParams []byte
	sampleRate  int
	channels    int
	log         *logrus.Entry
}

func NewAudioDecoderStage(codecParams []byte, sampleRate, channels int, log *logrus.Entry) *AudioDecoderStage {
	return &AudioDecoderStage{
		codecParams: codecParams,
		sampleRate:  sampleRate,
		channels:    channels,
		log:         log.WithField("stage", "audio_decoder"),
	}
}

func (s *AudioDecoderStage) Run(in *Queue[*CompressedPacket], out *Queue[*AudioFrame]) error {
	defer out.Finish()

	if err := ensureAVLib(); err != nil {
		s.log.WithError(err).Error("codec library unavailable")
		return newErr(ErrCodecMissing, "audio_decoder", err)
	}

	handle := avDecoderOpen(int32(StreamAudio), bytesPtr(s.codecParams), int32(len(s.codecParams)))
	if handle == 0 {
		return newErr(ErrCodecInit, "audio_decoder", errCodecOpenFailed("audio decoder"))
	}
	defer avDecoderClose(handle)

	decoded := 0
	drain := func() {
		for {
			var fr avFrameResult
			rc := avDecoderReceive(handle, uintptr(ptrOf(&fr)))
			if rc != 0 || fr.EAgain != 0 || fr.EOF != 0 {
				return
			}
			out.Push(deinterleavePlanar(fr.Planar, s.sampleRate, s.channels, int(fr.NumSamples), fr.PTS))
			decoded++
		}
	}

	for {
		pkt, ok := in.Pop()
		if !ok {
			break
		}
		rc := avDecoderSend(handle, bytesPtr(pkt.Data), int32(len(pkt.Data)), pkt.PTS, pkt.DTS)
		if rc != 0 {
			s.log.WithFields(logrus.Fields{"pts": pkt.PTS}).Warn("decode submission failed, skipping packet")
			continue
		}
		drain()
	}

	avDecoderSend(handle, 0, 0, 0, 0)
	drain()

	s.log.WithField("frames", decoded).Info("audio decode complete")
	return nil
}

// deinterleavePlanar copies a channel-major planar float buffer (the shim's
// ABI: channels concatenated back-to-back, not interleaved) out of C memory
// into a Go-owned AudioFrame.
func deinterleavePlanar(ptr uintptr, sampleRate, channels, numSamples int, pts int64) *AudioFrame {
	af := NewAudioFrame(sampleRate, channels, numSamples)
	if ptr == 0 {
		af.PTS = pts
		return af
	}
	base := (*float32)(unsafe.Pointer(ptr))
	src := unsafe.Slice(base, channels*numSamples)
	for ch := 0; ch < channels; ch++ {
		copy(af.Planes[ch], src[ch*numSamples:(ch+1)*numSamples])
	}
	af.PTS = pts
	return af
}
