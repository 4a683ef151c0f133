package stack

import (
	"image"
	"image/color"
	"testing"
)

func TestFrameFromImage_Gray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(0, 0, color.Gray{Y: 10})
	img.SetGray(2, 1, color.Gray{Y: 250})

	f := FrameFromImage(img)
	if len(f) != 2 || len(f[0]) != 3 {
		t.Fatalf("frame is %dx%d, want 2x3", len(f), len(f[0]))
	}
	if f[0][0] != 10 {
		t.Errorf("f[0][0] = %v, want 10 (native 8-bit value)", f[0][0])
	}
	if f[1][2] != 250 {
		t.Errorf("f[1][2] = %v, want 250", f[1][2])
	}
}

func TestFrameFromImage_Gray16(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 2))
	img.SetGray16(1, 0, color.Gray16{Y: 40000})

	f := FrameFromImage(img)
	if f[0][1] != 40000 {
		t.Errorf("f[0][1] = %v, want 40000 (native 16-bit value)", f[0][1])
	}
}

func TestFrameFromImage_ColorLuminance(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	f := FrameFromImage(img)
	if f[0][0] < 254.9 || f[0][0] > 255 {
		t.Errorf("white pixel luminance = %v, want ~255", f[0][0])
	}
}

func TestStackSampleRange(t *testing.T) {
	s := &Stack{
		Frames: []Frame{
			{{5, 3}, {8, 4}},
			{{2, 9}, {6, 7}},
		},
		Height: 2,
		Width:  2,
	}

	if got := s.MaxSample(); got != 9 {
		t.Errorf("MaxSample = %v, want 9", got)
	}
	if got := s.MinSample(); got != 2 {
		t.Errorf("MinSample = %v, want 2", got)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestStackSampleRange_Empty(t *testing.T) {
	s := &Stack{}
	if s.MaxSample() != 0 || s.MinSample() != 0 {
		t.Errorf("empty stack sample range = [%v, %v], want [0, 0]", s.MinSample(), s.MaxSample())
	}
}
