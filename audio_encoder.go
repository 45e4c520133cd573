package transcode

import "fmt"

// avAudioEncoder wraps one of libtranscode_av's AC3/AAC/MP3 encoders. The
// four concrete variants below correspond to original_source's AC3Encoder/
// AACEncoder/MP3Encoder/CopyEncoder subclasses of IAudioEncoder, modeled here
// as a capability set rather than a class hierarchy per the "avoid deep
// inheritance" design note.
type avAudioEncoder struct {
	handle    uintptr
	codec     AudioCodec
	frameSize int
	cfg       AudioEncoderConfig
}

func newAVAudioEncoder(codec AudioCodec) audioEncoderFactory {
	return func(cfg AudioEncoderConfig) (AudioEncoder, error) {
		if err := ensureAVLib(); err != nil {
			return nil, newErr(ErrCodecMissing, "audio_encoder", err)
		}
		var frameSize int32
		handle := avEncAudioOpen(int32(codec), int32(cfg.SampleRate), int32(cfg.Channels), int32(cfg.BitrateBps), uintptrOf(&frameSize))
		if handle == 0 {
			return nil, newErr(ErrCodecInit, "audio_encoder", errCodecOpenFailed(codec.String()))
		}
		return &avAudioEncoder{handle: handle, codec: codec, frameSize: int(frameSize), cfg: cfg}, nil
	}
}

func (e *avAudioEncoder) Encode(frame *AudioFrame) ([]*EncodedPacket, error) {
	if frame.NumSamples != e.frameSize {
		return nil, newErrPTS(ErrEncodeSubmit, "audio_encoder", frame.PTS, ErrFrameSizeMismatch)
	}
	buf := interleaveChannelMajor(frame)
	rc := avEncAudioSend(e.handle, bytesFloatPtr(buf), int32(frame.NumSamples), frame.PTS)
	if rc != 0 {
		return nil, newErrPTS(ErrEncodeSubmit, "audio_encoder", frame.PTS, fmt.Errorf("send_frame rc=%d", rc))
	}
	return e.drain(), nil
}

func (e *avAudioEncoder) Flush() ([]*EncodedPacket, error) {
	avEncAudioSend(e.handle, 0, 0, 0)
	return e.drain(), nil
}

func (e *avAudioEncoder) drain() []*EncodedPacket {
	var pkts []*EncodedPacket
	for {
		var pr avPacketResult
		rc := avEncReceive(e.handle, uintptr(ptrOf(&pr)))
		if rc != 0 || pr.EOF != 0 {
			break
		}
		pkts = append(pkts, &EncodedPacket{
			Kind:     StreamAudio,
			Data:     copyCBytes(pr.DataPtr, pr.DataLen),
			PTS:      pr.PTS,
			DTS:      pr.DTS,
			Duration: pr.Duration,
			KeyFrame: pr.KeyFrame != 0,
		})
	}
	return pkts
}

func (e *avAudioEncoder) Close() error {
	if e.handle != 0 {
		avEncAudioClose(e.handle)
		e.handle = 0
	}
	return nil
}

func (e *avAudioEncoder) Name() string        { return e.codec.String() }
func (e *avAudioEncoder) CodecID() AudioCodec { return e.codec }
func (e *avAudioEncoder) FrameSize() int      { return e.frameSize }
func (e *avAudioEncoder) Provider() Provider  { return ProviderLibavcodec }

// copyEncoder is the registry entry for target_audio_format = COPY. It never
// touches the codec library and encodes nothing itself: Encode always fails
// and FrameSize returns 0 ("no fixed frame size constraint"). The COPY
// passthrough of compressed packets is done by runAudioCopy in pipeline.go,
// which bypasses audio decode, processing and encoding entirely.
type copyEncoder struct {
	cfg AudioEncoderConfig
}

func newCopyEncoder(cfg AudioEncoderConfig) (AudioEncoder, error) {
	return &copyEncoder{cfg: cfg}, nil
}

func (e *copyEncoder) Encode(frame *AudioFrame) ([]*EncodedPacket, error) {
	return nil, fmt.Errorf("copyEncoder.Encode: COPY targets bypass frame-based encoding, see runAudioCopy")
}
func (e *copyEncoder) Flush() ([]*EncodedPacket, error) { return nil, nil }
func (e *copyEncoder) Close() error                     { return nil }
func (e *copyEncoder) Name() string                     { return "COPY" }
func (e *copyEncoder) CodecID() AudioCodec              { return AudioCodecUnknown }
func (e *copyEncoder) FrameSize() int                   { return 0 }
func (e *copyEncoder) Provider() Provider               { return ProviderCopy }

func init() {
	registerAudioEncoder(AudioCodecAC3, ProviderLibavcodec, newAVAudioEncoder(AudioCodecAC3))
	registerAudioEncoder(AudioCodecAAC, ProviderLibavcodec, newAVAudioEncoder(AudioCodecAAC))
	registerAudioEncoder(AudioCodecMP3, ProviderLibavcodec, newAVAudioEncoder(AudioCodecMP3))
	registerAudioEncoder(AudioCodecUnknown, ProviderCopy, newCopyEncoder)
	setProviderAvailable(ProviderCopy)
}
