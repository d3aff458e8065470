package preprocess

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func writeJPEG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.jpg")
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func grayImage(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func rgbImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func checkShape(t *testing.T, tensor *Tensor) {
	t.Helper()
	want := [4]int64{1, Height, Width, Channels}
	if tensor.Shape != want {
		t.Errorf("Shape = %v, want %v", tensor.Shape, want)
	}
	if len(tensor.Data) != Height*Width*Channels {
		t.Errorf("len(Data) = %d, want %d", len(tensor.Data), Height*Width*Channels)
	}
}

func checkRange(t *testing.T, tensor *Tensor) {
	t.Helper()
	for i, v := range tensor.Data {
		if v < 0 || v > 1 {
			t.Fatalf("Data[%d] = %v, want value in [0,1]", i, v)
		}
	}
}

func TestLoad_GrayscaleReplicatedToThreeChannels(t *testing.T) {
	t.Parallel()
	img := grayImage(64, 48, 0)
	for x := 0; x < 64; x++ {
		img.SetGray(x, 10, color.Gray{Y: uint8(x * 4)})
	}
	tensor, err := Load(writePNG(t, img))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	checkShape(t, tensor)
	checkRange(t, tensor)
	for y := 0; y < Height; y += 17 {
		for x := 0; x < Width; x += 13 {
			r, g, b := tensor.At(y, x, 0), tensor.At(y, x, 1), tensor.At(y, x, 2)
			if r != g || g != b {
				t.Fatalf("pixel (%d,%d) = %v/%v/%v, want equal channels", y, x, r, g, b)
			}
		}
	}
}

func TestLoad_GrayAndColorSameShape(t *testing.T) {
	t.Parallel()
	gray, err := Load(writePNG(t, grayImage(300, 200, 128)))
	if err != nil {
		t.Fatalf("Load(gray) error: %v", err)
	}
	rgb, err := Load(writeJPEG(t, rgbImage(120, 500, color.RGBA{R: 200, G: 30, B: 90, A: 255})))
	if err != nil {
		t.Fatalf("Load(rgb) error: %v", err)
	}
	if gray.Shape != rgb.Shape {
		t.Errorf("gray shape %v != rgb shape %v", gray.Shape, rgb.Shape)
	}
	checkShape(t, rgb)
	checkRange(t, rgb)
}

func TestLoad_UniformColorNormalized(t *testing.T) {
	t.Parallel()
	tensor, err := Load(writePNG(t, rgbImage(32, 32, color.RGBA{R: 255, G: 0, B: 51, A: 255})))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	const tol = 1.0/255 + 1e-6
	want := [3]float64{1, 0, 0.2}
	for c := 0; c < 3; c++ {
		got := float64(tensor.At(Height/2, Width/2, c))
		if math.Abs(got-want[c]) > tol {
			t.Errorf("channel %d = %v, want %v", c, got, want[c])
		}
	}
}

func TestFromImage_InterpolatesBelowByteSteps(t *testing.T) {
	t.Parallel()
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.Pix = []uint8{0, 255, 10}
	tensor, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage() error: %v", err)
	}
	const step = 1.0 / 255
	between := 0
	for x := 0; x < Width; x++ {
		v := float64(tensor.At(0, x, 0))
		if frac := math.Mod(v, step) / step; frac > 0.05 && frac < 0.95 {
			between++
		}
	}
	if between == 0 {
		t.Error("every interpolated value is a multiple of 1/255, want finer precision")
	}
}

func TestLoad_RejectsTransparency(t *testing.T) {
	t.Parallel()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	img.SetNRGBA(3, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 100})
	_, err := Load(writePNG(t, img))
	if err == nil {
		t.Fatal("Load() expected error for translucent image")
	}
	if !errors.Is(err, ErrUnsupportedChannels) {
		t.Errorf("error = %v, want ErrUnsupportedChannels", err)
	}
	var le *ImageLoadError
	if !errors.As(err, &le) {
		t.Fatalf("error type = %T, want *ImageLoadError", err)
	}
	if le.Path == "" {
		t.Error("ImageLoadError.Path is empty, want image path")
	}
}

func TestLoad_OpaqueAlphaAccepted(t *testing.T) {
	t.Parallel()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
		}
	}
	tensor, err := Load(writePNG(t, img))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	checkShape(t, tensor)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nope.jpg")
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist", err)
	}
	if !strings.Contains(err.Error(), "nope.jpg") {
		t.Errorf("error = %q, want to mention the path", err.Error())
	}
}

func TestDecode_Garbage(t *testing.T) {
	t.Parallel()
	_, err := Decode(strings.NewReader("definitely not an image"))
	if err == nil {
		t.Fatal("Decode() expected error for garbage input")
	}
	var le *ImageLoadError
	if !errors.As(err, &le) {
		t.Errorf("error type = %T, want *ImageLoadError", err)
	}
}

func TestFromImage_Empty(t *testing.T) {
	t.Parallel()
	_, err := FromImage(image.NewGray(image.Rect(0, 0, 0, 0)))
	if err == nil {
		t.Fatal("FromImage() expected error for empty image")
	}
}

func TestNested_Layout(t *testing.T) {
	t.Parallel()
	tensor := &Tensor{Shape: [4]int64{1, 2, 2, 3}, Data: []float32{
		0, 1, 2, 3, 4, 5,
		6, 7, 8, 9, 10, 11,
	}}
	n := tensor.Nested()
	if len(n) != 1 || len(n[0]) != 2 || len(n[0][0]) != 2 || len(n[0][0][0]) != 3 {
		t.Fatalf("Nested() dims wrong: %v", n)
	}
	if n[0][1][0][2] != 8 {
		t.Errorf("Nested()[0][1][0][2] = %v, want 8", n[0][1][0][2])
	}
	if tensor.At(1, 1, 1) != 10 {
		t.Errorf("At(1,1,1) = %v, want 10", tensor.At(1, 1, 1))
	}
}
