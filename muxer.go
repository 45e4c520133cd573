package transcode

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// MuxerConfig describes the single video stream and single audio stream the
// output container carries, per §4.7's stream-setup step.
type MuxerConfig struct {
	OutputPath   string
	OutputFormat string

	VideoCodec VideoCodec
	Width      int
	Height     int
	FPS        int

	AudioCodec AudioCodec
	SampleRate int
	Channels   int
}

// Muxer implements §4.7: pts-ordered interleave of the video and audio
// encoded-packet queues, tie-break favors video, trailer written only after
// both queues have drained and finished.
type Muxer struct {
	cfg MuxerConfig
	log *logrus.Entry
}

func NewMuxer(cfg MuxerConfig, log *logrus.Entry) *Muxer {
	return &Muxer{cfg: cfg, log: log.WithField("stage", "muxer")}
}

// muxerHead is the one-packet lookahead buffer this stage keeps per input
// queue so it can compare head pts before committing to a write, without
// ever calling Pop on a queue that already holds a buffered head.
type muxerHead struct {
	pkt  *EncodedPacket
	have bool
	done bool
}

func (m *Muxer) fillHead(q *Queue[*EncodedPacket], h *muxerHead) {
	if h.have || h.done {
		return
	}
	pkt, ok := q.Pop()
	if !ok {
		h.done = true
		return
	}
	h.pkt = pkt
	h.have = true
}

func (m *Muxer) Run(videoIn, audioIn *Queue[*EncodedPacket]) error {
	if err := ensureAVLib(); err != nil {
		return newErr(ErrCodecMissing, "muxer", err)
	}

	handle := avMuxOpen(m.cfg.OutputPath, m.cfg.OutputFormat)
	if handle == 0 {
		return newErr(ErrMuxWrite, "muxer", fmt.Errorf("could not open output %q", m.cfg.OutputPath))
	}
	defer avMuxClose(handle)

	if rc := avMuxAddVideo(handle, int32(m.cfg.VideoCodec), int32(m.cfg.Width), int32(m.cfg.Height), int32(m.cfg.FPS)); rc != 0 {
		return newErr(ErrMuxWrite, "muxer", fmt.Errorf("add_video rc=%d", rc))
	}
	if rc := avMuxAddAudio(handle, int32(m.cfg.AudioCodec), int32(m.cfg.SampleRate), int32(m.cfg.Channels)); rc != 0 {
		return newErr(ErrMuxWrite, "muxer", fmt.Errorf("add_audio rc=%d", rc))
	}

	var videoHead, audioHead muxerHead
	var videoCount, audioCount int64

	for {
		m.fillHead(videoIn, &videoHead)
		m.fillHead(audioIn, &audioHead)
		if videoHead.done && audioHead.done {
			break
		}

		switch {
		case videoHead.done:
			if err := m.writeAudio(handle, &audioHead, &audioCount); err != nil {
				return err
			}
		case audioHead.done:
			if err := m.writeVideo(handle, &videoHead, &videoCount); err != nil {
				return err
			}
		default:
			// Rescale both heads to seconds purely for the ordering decision;
			// the pts written to the container stays in each stream's native
			// units, already equal to its declared time base.
			vTs := ptsSeconds(headPTS(videoHead.pkt, videoCount), m.cfg.FPS)
			aTs := ptsSeconds(headPTS(audioHead.pkt, audioCount), m.cfg.SampleRate)
			if vTs <= aTs {
				if err := m.writeVideo(handle, &videoHead, &videoCount); err != nil {
					return err
				}
			} else {
				if err := m.writeAudio(handle, &audioHead, &audioCount); err != nil {
					return err
				}
			}
		}
	}

	m.log.WithFields(logrus.Fields{"video_packets": videoCount, "audio_packets": audioCount}).Info("mux complete")
	return nil
}

// headPTS synthesizes a pts from the stream's running packet count when the
// packet arrived without one (a negative pts is the "absent" sentinel).
func headPTS(pkt *EncodedPacket, runningCount int64) int64 {
	if pkt.PTS < 0 {
		return runningCount
	}
	return pkt.PTS
}

func ptsSeconds(pts int64, rate int) float64 {
	if rate <= 0 {
		return float64(pts)
	}
	return float64(pts) / float64(rate)
}

func (m *Muxer) writeVideo(handle uintptr, h *muxerHead, count *int64) error {
	pkt := h.pkt
	pts := headPTS(pkt, *count)
	rc := avMuxWritePkt(handle, int32(StreamVideo), bytesPtr(pkt.Data), int32(len(pkt.Data)), pts, pkt.DTS, pkt.Duration, boolToInt32(pkt.KeyFrame))
	*count++
	h.have = false
	if rc != 0 {
		return newErrPTS(ErrMuxWrite, "muxer", pts, fmt.Errorf("write_packet(video) rc=%d", rc))
	}
	return nil
}

func (m *Muxer) writeAudio(handle uintptr, h *muxerHead, count *int64) error {
	pkt := h.pkt
	pts := headPTS(pkt, *count)
	rc := avMuxWritePkt(handle, int32(StreamAudio), bytesPtr(pkt.Data), int32(len(pkt.Data)), pts, pkt.DTS, pkt.Duration, boolToInt32(pkt.KeyFrame))
	*count++
	h.have = false
	if rc != 0 {
		return newErrPTS(ErrMuxWrite, "muxer", pts, fmt.Errorf("write_packet(audio) rc=%d", rc))
	}
	return nil
}
