package transcode

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	c := DefaultConfig("in.mp4", "out.mp4")
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() on DefaultConfig = %v, want nil", err)
	}
}

func TestValidateRejectsMissingPaths(t *testing.T) {
	c := DefaultConfig("", "out.mp4")
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() with empty input_path = nil, want error")
	}
}

func TestValidateRejectsOutOfRangeSpeed(t *testing.T) {
	c := DefaultConfig("in.mp4", "out.mp4")
	c.SpeedFactor = 5.1
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() with speed_factor=5.1 = nil, want error")
	}
	c.SpeedFactor = 0.05
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() with speed_factor=0.05 = nil, want error")
	}
}

func TestValidateRejectsOutOfRangeBrightnessContrast(t *testing.T) {
	c := DefaultConfig("in.mp4", "out.mp4")
	c.Brightness = 2.5
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() with brightness=2.5 = nil, want error")
	}
	c = DefaultConfig("in.mp4", "out.mp4")
	c.Contrast = -0.1
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() with contrast=-0.1 = nil, want error")
	}
}

func TestValidateDefaultsQueueCapacities(t *testing.T) {
	c := DefaultConfig("in.mp4", "out.mp4")
	c.QueueCapacities = QueueCapacities{}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if c.QueueCapacities.VideoPacket <= 0 || c.QueueCapacities.AudioPacketOut <= 0 {
		t.Errorf("QueueCapacities not defaulted: %+v", c.QueueCapacities)
	}
}

func TestValidateRejectsUnknownTargetAudioFormat(t *testing.T) {
	c := DefaultConfig("in.mp4", "out.mp4")
	c.TargetAudioFormat = TargetAudioFormat(99)
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() with an unknown target_audio_format = nil, want error")
	}
}
