package transcode

import (
	"github.com/sirupsen/logrus"
)

// VideoDecoderStage consumes compressed video packets and produces decoded
// frames, per §4.3.
type VideoDecoderStage struct {
	codecParams []byte
	log         *logrus.Entry
}

func NewVideoDecoderStage(codecParams []byte, log *logrus.Entry) *VideoDecoderStage {
	return &VideoDecoderStage{codecParams: codecParams, log: log.WithField("stage", "video_decoder")}
}

// Run submits every packet to the codec, drains every frame the codec
// produces per packet (0, 1, or many), and pushes each onto out. On input
// termination it submits a null flush packet, drains the remainder, then
// finishes out. A submission error is logged and the packet skipped; a
// frame allocation failure is fatal to the stage.
func (s *VideoDecoderStage) Run(in *Queue[*CompressedPacket], out *Queue[*VideoFrame]) error {
	defer out.Finish()

	if err := ensureAVLib(); err != nil {
		s.log.WithError(err).Error("codec library unavailable")
		return newErr(ErrCodecMissing, "video_decoder", err)
	}

	handle := avDecoderOpen(int32(StreamVideo), bytesPtr(s.codecParams), int32(len(s.codecParams)))
	if handle == 0 {
		return newErr(ErrCodecInit, "video_decoder", errCodecOpenFailed("video decoder"))
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
			frame := &VideoFrame{
				Data: [][]byte{
					copyCPlane(fr.Y, fr.StrideY, fr.Height),
					copyCPlane(fr.U, fr.StrideU, fr.Height/2),
					copyCPlane(fr.V, fr.StrideV, fr.Height/2),
				},
				Stride: []int{int(fr.StrideY), int(fr.StrideU), int(fr.StrideV)},
				Width:  int(fr.Width),
				Height: int(fr.Height),
				Format: PixelFormatI420,
				PTS:    fr.PTS,
				DTS:    fr.PTS,
			}
			out.Push(frame)
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

	// flush: null packet submission, per §4.3.
	avDecoderSend(handle, 0, 0, 0, 0)
	drain()

	s.log.WithField("frames", decoded).Info("video decode complete")
	return nil
}

func copyCPlane(ptr uintptr, stride, rows int32) []byte {
	return copyCBytes(ptr, stride*rows)
}
