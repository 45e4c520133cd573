package transcode

import "testing"

func TestSpeedGateIdentity(t *testing.T) {
	for k := int64(1); k <= 10; k++ {
		keep, dupes := speedGate(k, 1.0)
		if !keep || dupes != 0 {
			t.Errorf("speedGate(%d, 1.0) = %v, %d; want true, 0", k, keep, dupes)
		}
	}
}

func TestSpeedGateDoubleDropsEveryOther(t *testing.T) {
	dropped := 0
	for k := int64(1); k <= 100; k++ {
		keep, _ := speedGate(k, 2.0)
		if !keep {
			dropped++
		}
	}
	if dropped != 50 {
		t.Errorf("speed=2.0 dropped %d of 100, want 50", dropped)
	}
}

func TestSpeedGateOneAndAHalfDropsOneInThree(t *testing.T) {
	dropped := 0
	for k := int64(1); k <= 99; k++ {
		keep, _ := speedGate(k, 1.5)
		if !keep {
			dropped++
		}
	}
	if dropped != 33 {
		t.Errorf("speed=1.5 dropped %d of 99, want 33", dropped)
	}
}

func TestSpeedGateHalfDuplicatesEveryFrame(t *testing.T) {
	keep, dupes := speedGate(1, 0.5)
	if !keep || dupes != 1 {
		t.Errorf("speedGate(1, 0.5) = %v, %d; want true, 1", keep, dupes)
	}
}

func TestApplyGrayscaleSetsChromaToNeutral(t *testing.T) {
	f := NewI420Frame(4, 4)
	for i := range f.Data[1] {
		f.Data[1][i] = 10
	}
	for i := range f.Data[2] {
		f.Data[2][i] = 200
	}
	applyGrayscale(f)
	for _, plane := range [][]byte{f.Data[1], f.Data[2]} {
		for _, v := range plane {
			if v != 128 {
				t.Fatalf("chroma sample = %d, want 128", v)
			}
		}
	}
}

func TestApplyGrayscaleIsIdempotent(t *testing.T) {
	f := NewI420Frame(4, 4)
	applyGrayscale(f)
	snapshot := append([]byte(nil), f.Data[1]...)
	applyGrayscale(f)
	for i, v := range f.Data[1] {
		if v != snapshot[i] {
			t.Fatalf("grayscale not idempotent at index %d: %d != %d", i, v, snapshot[i])
		}
	}
}

func TestApplyBrightnessContrastIdentity(t *testing.T) {
	f := NewI420Frame(2, 2)
	for i := range f.Data[0] {
		f.Data[0][i] = byte(50 + i*30)
	}
	before := append([]byte(nil), f.Data[0]...)
	applyBrightnessContrast(f, 1.0, 1.0)
	for i, v := range f.Data[0] {
		if v != before[i] {
			t.Errorf("identity brightness/contrast changed sample %d: %d -> %d", i, before[i], v)
		}
	}
}

func TestApplyBrightnessContrastClamps(t *testing.T) {
	f := NewI420Frame(1, 1)
	f.Data[0][0] = 255
	applyBrightnessContrast(f, 2.0, 2.0)
	if f.Data[0][0] != 255 {
		t.Errorf("Data[0][0] = %d, want clamped to 255", f.Data[0][0])
	}
}

func TestApplyBoxBlurLeavesBorderUntouched(t *testing.T) {
	f := NewI420Frame(4, 4)
	for i := range f.Data[0] {
		f.Data[0][i] = byte(i * 10)
	}
	before := append([]byte(nil), f.Data[0]...)
	applyBoxBlur(f)
	stride := f.Stride[0]
	for row := 0; row < f.Height; row++ {
		for col := 0; col < f.Width; col++ {
			if row == 0 || col == 0 || row == f.Height-1 || col == f.Width-1 {
				idx := row*stride + col
				if f.Data[0][idx] != before[idx] {
					t.Errorf("border pixel (%d,%d) changed: %d -> %d", row, col, before[idx], f.Data[0][idx])
				}
			}
		}
	}
}

func TestApplySharpenLeavesBorderUntouched(t *testing.T) {
	f := NewI420Frame(4, 4)
	for i := range f.Data[0] {
		f.Data[0][i] = byte(i * 7)
	}
	before := append([]byte(nil), f.Data[0]...)
	applySharpen(f)
	stride := f.Stride[0]
	for row := 0; row < f.Height; row++ {
		for col := 0; col < f.Width; col++ {
			if row == 0 || col == 0 || row == f.Height-1 || col == f.Width-1 {
				idx := row*stride + col
				if f.Data[0][idx] != before[idx] {
					t.Errorf("border pixel (%d,%d) changed: %d -> %d", row, col, before[idx], f.Data[0][idx])
				}
			}
		}
	}
}

func TestApplySharpenFlatRegionUnchanged(t *testing.T) {
	f := NewI420Frame(4, 4)
	for i := range f.Data[0] {
		f.Data[0][i] = 100
	}
	applySharpen(f)
	for _, v := range f.Data[0] {
		if v != 100 {
			t.Errorf("sharpen changed a flat region sample to %d, want 100", v)
		}
	}
}
