package transcode

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// StreamInfo describes the two streams the demuxer probed, mirroring §4.2.
// CodecParams is an opaque deep copy the decoder stage consumes and frees at
// its own termination, independent of the demuxer's lifetime.
type StreamInfo struct {
	VideoWidth, VideoHeight int
	VideoFPSNum, VideoFPSDen int
	VideoCodecParams        []byte

	AudioSampleRate int
	AudioChannels   int
	AudioCodecParams []byte

	HasVideo, HasAudio bool
}

func (s *StreamInfo) videoFPS() int {
	if s.VideoFPSDen == 0 {
		return 0
	}
	return s.VideoFPSNum / s.VideoFPSDen
}

// ProbeStream opens the container just long enough to read stream metadata,
// the one-shot "probe" operation of §4.2.
func ProbeStream(path string) (*StreamInfo, error) {
	if err := ensureAVLib(); err != nil {
		return nil, newErr(ErrCodecMissing, "demuxer", err)
	}
	var raw avProbeResult
	rc := avProbe(path, uintptr(ptrOf(&raw)))
	if rc != 0 {
		return nil, newErr(ErrInputOpen, "demuxer", fmt.Errorf("probe failed: rc=%d", rc))
	}
	info := &StreamInfo{
		HasVideo:    raw.VideoStreamIndex >= 0,
		HasAudio:    raw.AudioStreamIndex >= 0,
		VideoWidth:  int(raw.Width),
		VideoHeight: int(raw.Height),
		VideoFPSNum: int(raw.FPSNum),
		VideoFPSDen: int(raw.FPSDen),
		AudioSampleRate: int(raw.SampleRate),
		AudioChannels:   int(raw.Channels),
	}
	if info.HasVideo {
		info.VideoCodecParams = copyCBytes(raw.VideoParamsPtr, raw.VideoParamsLen)
	}
	if info.HasAudio {
		info.AudioCodecParams = copyCBytes(raw.AudioParamsPtr, raw.AudioParamsLen)
	}
	if !info.HasVideo && !info.HasAudio {
		return nil, newErr(ErrStreamNotFound, "demuxer", fmt.Errorf("no video or audio stream found in %s", path))
	}
	return info, nil
}

// Demuxer reads a container, dispatching compressed packets onto the video
// and audio packet queues, per §4.2.
type Demuxer struct {
	path           string
	maxVideoFrames int
	log            *logrus.Entry
}

// NewDemuxer creates a demuxer for path. maxVideoFrames of 0 means unlimited.
func NewDemuxer(path string, maxVideoFrames int, log *logrus.Entry) *Demuxer {
	return &Demuxer{path: path, maxVideoFrames: maxVideoFrames, log: log.WithField("stage", "demuxer")}
}

// Run reads packets until end-of-file or the video packet ceiling, then
// finishes both output queues exactly once. Open/probe failures finish both
// queues without producing any packet; per-packet read errors are treated as
// end-of-stream.
func (d *Demuxer) Run(videoOut, audioOut *Queue[*CompressedPacket]) error {
	defer videoOut.Finish()
	defer audioOut.Finish()

	if err := ensureAVLib(); err != nil {
		d.log.WithError(err).Error("codec library unavailable")
		return newErr(ErrCodecMissing, "demuxer", err)
	}

	handle := avDemuxOpen(d.path)
	if handle == 0 {
		err := newErr(ErrInputOpen, "demuxer", fmt.Errorf("could not open %s", d.path))
		d.log.WithError(err).Error("open failed")
		return err
	}
	defer avDemuxClose(handle)

	videoCount, audioCount := 0, 0
	for {
		var pkt avPacketResult
		rc := avDemuxRead(handle, uintptr(ptrOf(&pkt)))
		if rc != 0 || pkt.EOF != 0 {
			break
		}
		cp := &CompressedPacket{
			Kind:     StreamKind(pkt.Kind),
			Data:     copyCBytes(pkt.DataPtr, pkt.DataLen),
			PTS:      pkt.PTS,
			DTS:      pkt.DTS,
			Duration: pkt.Duration,
			KeyFrame: pkt.KeyFrame != 0,
		}
		switch cp.Kind {
		case StreamVideo:
			videoOut.Push(cp)
			videoCount++
		case StreamAudio:
			audioOut.Push(cp)
			audioCount++
		}
		if d.maxVideoFrames > 0 && videoCount >= d.maxVideoFrames {
			d.log.WithField("max_video_frames", d.maxVideoFrames).Info("frame ceiling reached")
			break
		}
	}
	d.log.WithFields(logrus.Fields{"video_packets": videoCount, "audio_packets": audioCount}).Info("demux complete")
	return nil
}
