// Package preprocess turns an OCT scan on disk into the normalized
// [1, 256, 256, 3] float tensor the classification graphs expect.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Network input geometry.
const (
	Height   = 256
	Width    = 256
	Channels = 3
)

// ErrUnsupportedChannels indicates a decoded image that is neither
// single-channel nor opaque RGB.
var ErrUnsupportedChannels = errors.New("unsupported channel count")

// ImageLoadError wraps any failure to produce an input tensor.
type ImageLoadError struct {
	Path string
	Err  error
}

func (e *ImageLoadError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

// Tensor is a dense float32 tensor in NHWC layout.
type Tensor struct {
	Shape [4]int64
	Data  []float32
}

// At returns the value at batch 0, row y, column x, channel c.
func (t *Tensor) At(y, x, c int) float32 {
	w, ch := int(t.Shape[2]), int(t.Shape[3])
	return t.Data[(y*w+x)*ch+c]
}

// Nested returns the tensor as [batch][height][width][channel] slices,
// the layout accepted by the TensorFlow tensor constructor.
func (t *Tensor) Nested() [][][][]float32 {
	n, h, w, ch := int(t.Shape[0]), int(t.Shape[1]), int(t.Shape[2]), int(t.Shape[3])
	out := make([][][][]float32, n)
	i := 0
	for b := range out {
		out[b] = make([][][]float32, h)
		for y := range out[b] {
			out[b][y] = make([][]float32, w)
			for x := range out[b][y] {
				out[b][y][x] = t.Data[i : i+ch : i+ch]
				i += ch
			}
		}
	}
	return out
}

// Load reads the image at path and converts it to a network input tensor.
func Load(path string) (*Tensor, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, &ImageLoadError{Path: path, Err: err}
	}
	t, err := Decode(bytes.NewReader(buf))
	if err != nil {
		var le *ImageLoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return t, nil
}

// Decode converts an encoded image of any registered format.
func Decode(r io.Reader) (*Tensor, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, &ImageLoadError{Err: fmt.Errorf("decoding image: %w", err)}
	}
	return FromImage(img)
}

// FromImage converts a decoded image. Single-channel images are replicated
// across the three color channels; images with real transparency are rejected.
func FromImage(img image.Image) (*Tensor, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &ImageLoadError{Err: fmt.Errorf("empty image (%dx%d)", b.Dx(), b.Dy())}
	}

	ch := channelCount(img)
	if ch != 1 && ch != Channels {
		return nil, &ImageLoadError{Err: fmt.Errorf("%w: %d", ErrUnsupportedChannels, ch)}
	}

	// Interpolate at 16 bits per channel so the result keeps sub-1/255
	// precision; an 8-bit resize would quantize before normalization.
	resized := resize.Resize(Width, Height, widen(img, ch), resize.Bicubic)
	rb := resized.Bounds()
	if rb.Dx() != Width || rb.Dy() != Height {
		return nil, &ImageLoadError{Err: fmt.Errorf("resize produced %dx%d, want %dx%d", rb.Dx(), rb.Dy(), Width, Height)}
	}

	t := &Tensor{
		Shape: [4]int64{1, Height, Width, Channels},
		Data:  make([]float32, Height*Width*Channels),
	}
	i := 0
	for y := rb.Min.Y; y < rb.Max.Y; y++ {
		for x := rb.Min.X; x < rb.Max.X; x++ {
			r, g, bl, _ := resized.At(x, y).RGBA()
			if ch == 1 {
				v := float32(r) / maxChannel
				t.Data[i], t.Data[i+1], t.Data[i+2] = v, v, v
			} else {
				t.Data[i] = float32(r) / maxChannel
				t.Data[i+1] = float32(g) / maxChannel
				t.Data[i+2] = float32(bl) / maxChannel
			}
			i += Channels
		}
	}
	return t, nil
}

const maxChannel = 0xffff

// widen copies img into a 16-bit Gray16 (ch == 1) or RGBA64 image.
func widen(img image.Image, ch int) image.Image {
	b := img.Bounds()
	if ch == 1 {
		if g, ok := img.(*image.Gray16); ok {
			return g
		}
		out := image.NewGray16(b)
		draw.Draw(out, b, img, b.Min, draw.Src)
		return out
	}
	out := image.NewRGBA64(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}

// channelCount reports how many channels the decoded image carries:
// 1 for grayscale, 4 when any pixel is not fully opaque, otherwise 3.
func channelCount(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return 4
	}
	return 3
}
