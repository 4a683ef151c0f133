package stack

import (
	"image"
)

// Frame is a single H×W grid of intensity samples, indexed [y][x].
type Frame [][]float64

// Stack is an ordered sequence of frames sharing one set of dimensions.
//
// Frames are immutable once loaded; detection code only reads them.
type Stack struct {
	Frames []Frame
	Height int
	Width  int
}

// Len returns the number of frames in the stack.
func (s *Stack) Len() int {
	return len(s.Frames)
}

// MaxSample returns the largest sample value across all frames.
// Returns 0 for an empty stack.
func (s *Stack) MaxSample() float64 {
	var max float64
	for _, f := range s.Frames {
		for _, row := range f {
			for _, v := range row {
				if v > max {
					max = v
				}
			}
		}
	}
	return max
}

// MinSample returns the smallest sample value across all frames.
// Returns 0 for an empty stack.
func (s *Stack) MinSample() float64 {
	if len(s.Frames) == 0 {
		return 0
	}
	min := s.Frames[0][0][0]
	for _, f := range s.Frames {
		for _, row := range f {
			for _, v := range row {
				if v < min {
					min = v
				}
			}
		}
	}
	return min
}

// NewFrame allocates a zeroed height×width frame.
func NewFrame(height, width int) Frame {
	f := make(Frame, height)
	for y := range f {
		f[y] = make([]float64, width)
	}
	return f
}

// FrameFromImage converts a decoded image to a frame of raw sample values.
//
// Grayscale images keep their native range (0-255 for 8-bit, 0-65535 for
// 16-bit). Color images are reduced to 8-bit luminance using ITU-R BT.601
// weights, matching the usual screenshot-to-gray conversion.
func FrameFromImage(img image.Image) Frame {
	bounds := img.Bounds()
	height := bounds.Dy()
	width := bounds.Dx()
	f := NewFrame(height, width)

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				f[y][x] = float64(src.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y)
			}
		}
	case *image.Gray16:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				f[y][x] = float64(src.Gray16At(x+bounds.Min.X, y+bounds.Min.Y).Y)
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
				f[y][x] = float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114
			}
		}
	}
	return f
}
