package transcode

import (
	"fmt"
)

// avVideoEncoder drives the MPEG-4 encoder of libtranscode_av, matching
// §4.6's video encoder contract.
type avVideoEncoder struct {
	handle uintptr
	cfg    VideoEncoderConfig
}

func newAVVideoEncoder(cfg VideoEncoderConfig) (VideoEncoder, error) {
	if err := ensureAVLib(); err != nil {
		return nil, newErr(ErrCodecMissing, "video_encoder", err)
	}
	handle := avEncVideoOpen(int32(cfg.Codec), int32(cfg.Width), int32(cfg.Height), int32(cfg.FPS),
		int32(cfg.BitrateBps), int32(cfg.GopSize), int32(cfg.MaxBFrames))
	if handle == 0 {
		return nil, newErr(ErrCodecInit, "video_encoder", errCodecOpenFailed(cfg.Codec.String()))
	}
	return &avVideoEncoder{handle: handle, cfg: cfg}, nil
}

func (e *avVideoEncoder) Encode(frame *VideoFrame) ([]*EncodedPacket, error) {
	if frame.Width != e.cfg.Width || frame.Height != e.cfg.Height {
		return nil, newErr(ErrEncodeSubmit, "video_encoder", ErrFrameDimsMismatch)
	}
	rc := avEncVideoSend(e.handle,
		bytesPtr(frame.Data[0]), bytesPtr(frame.Data[1]), bytesPtr(frame.Data[2]),
		int32(frame.Stride[0]), int32(frame.Stride[1]), int32(frame.Stride[2]), frame.PTS)
	if rc != 0 {
		return nil, newErrPTS(ErrEncodeSubmit, "video_encoder", frame.PTS, fmt.Errorf("send_frame rc=%d", rc))
	}
	return e.drain(), nil
}

func (e *avVideoEncoder) Flush() ([]*EncodedPacket, error) {
	avEncVideoSend(e.handle, 0, 0, 0, 0, 0, 0, 0)
	return e.drain(), nil
}

func (e *avVideoEncoder) drain() []*EncodedPacket {
	var pkts []*EncodedPacket
	for {
		var pr avPacketResult
		rc := avEncReceive(e.handle, uintptr(ptrOf(&pr)))
		if rc != 0 || pr.EOF != 0 {
			break
		}
		pkts = append(pkts, &EncodedPacket{
			Kind:     StreamVideo,
			Data:     copyCBytes(pr.DataPtr, pr.DataLen),
			PTS:      pr.PTS,
			DTS:      pr.DTS,
			Duration: pr.Duration,
			KeyFrame: pr.KeyFrame != 0,
		})
	}
	return pkts
}

func (e *avVideoEncoder) Close() error {
	if e.handle != 0 {
		avEncVideoClose(e.handle)
		e.handle = 0
	}
	return nil
}

func (e *avVideoEncoder) Provider() Provider           { return ProviderLibavcodec }
func (e *avVideoEncoder) Codec() VideoCodec             { return e.cfg.Codec }
func (e *avVideoEncoder) Config() VideoEncoderConfig    { return e.cfg }

func init() {
	registerVideoEncoder(VideoCodecMPEG4, ProviderLibavcodec, newAVVideoEncoder)
	registerVideoEncoder(VideoCodecH264, ProviderLibavcodec, newAVVideoEncoder)
}
