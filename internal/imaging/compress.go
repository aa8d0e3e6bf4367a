// Package imaging turns user-selected image files into size-bounded JPEGs
// ready for upload and hands out revocable preview handles for them.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // registered decoders
	"image/jpeg"
	_ "image/png"
	"math"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

const (
	qualityStep = 10
	minEdge     = 16
	outputType  = "image/jpeg"
)

// Options bound the output of the pipeline.
type Options struct {
	MaxWidth     int
	MaxHeight    int
	MaxBytes     int
	StartQuality int
	MinQuality   int
	Concurrency  int
	// MaxSourcePixels caps width*height of an input before it is decoded.
	MaxSourcePixels int
}

func DefaultOptions() Options {
	return Options{
		MaxWidth:     1920,
		MaxHeight:    1920,
		MaxBytes:     1 << 20,
		StartQuality: 85,
		MinQuality:   40,
		Concurrency:  4,

		MaxSourcePixels: 40_000_000,
	}
}

func (o Options) validate() error {
	switch {
	case o.MaxWidth < minEdge || o.MaxHeight < minEdge:
		return fmt.Errorf("imaging: max dimensions must be at least %dpx", minEdge)
	case o.MaxBytes < 4<<10:
		return errors.New("imaging: byte budget must be at least 4KiB")
	case o.MinQuality < 1 || o.StartQuality > 100 || o.MinQuality > o.StartQuality:
		return errors.New("imaging: quality range must satisfy 1 <= min <= start <= 100")
	case o.Concurrency < 1:
		return errors.New("imaging: concurrency must be positive")
	case o.MaxSourcePixels < o.MaxWidth*o.MaxHeight:
		return errors.New("imaging: source pixel limit must cover the output dimensions")
	}
	return nil
}

// RawFile is a file as selected by the user.
type RawFile struct {
	Name string
	Data []byte
}

// File is a compressed, upload-ready image.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

func (f File) Size() int { return len(f.Data) }

// Batch is the outcome of one Compress call. Files keeps the input order with
// the failed inputs left out.
type Batch struct {
	Files    []File
	Failures []Failure
}

// Compressor runs the decode → fit → re-encode pipeline.
type Compressor struct {
	opts   Options
	logger *zap.Logger
}

func NewCompressor(opts Options, logger *zap.Logger) (*Compressor, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compressor{opts: opts, logger: logger}, nil
}

// Compress processes files concurrently. A file that is not an image or cannot
// be decoded is skipped and reported; the returned error is then a
// *ProcessingError while Batch still carries every file that succeeded. Only
// ctx cancellation aborts the batch.
func (c *Compressor) Compress(ctx context.Context, files []RawFile) (Batch, error) {
	results := make([]*File, len(files))
	failures := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)
	for i := range files {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := c.compressOne(files[i])
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = &f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}

	var batch Batch
	for i := range files {
		if failures[i] != nil {
			batch.Failures = append(batch.Failures, Failure{Name: files[i].Name, Err: failures[i]})
			continue
		}
		batch.Files = append(batch.Files, *results[i])
	}
	if len(batch.Failures) > 0 {
		c.logger.Warn("image batch partially failed",
			zap.Int("ok", len(batch.Files)), zap.Int("failed", len(batch.Failures)))
		return batch, &ProcessingError{Failures: batch.Failures}
	}
	return batch, nil
}

func (c *Compressor) compressOne(raw RawFile) (File, error) {
	mtype := mimetype.Detect(raw.Data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return File{}, &UnsupportedFileTypeError{Name: raw.Name, MIME: mtype.String()}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw.Data))
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(c.opts.MaxSourcePixels) {
		return File{}, &TooLargeError{Name: raw.Name, Width: cfg.Width, Height: cfg.Height}
	}

	src, _, err := image.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	w, h := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), c.opts.MaxWidth, c.opts.MaxHeight)
	img := render(src, w, h)

	for {
		data, err := c.encodeWithinBudget(img)
		if err != nil {
			return File{}, err
		}
		if data != nil {
			b := img.Bounds()
			return File{
				Name:        jpegName(raw.Name),
				ContentType: outputType,
				Data:        data,
				Width:       b.Dx(),
				Height:      b.Dy(),
			}, nil
		}
		// Lowest quality still too large: trade resolution for bytes.
		w, h = w*3/4, h*3/4
		if w < minEdge || h < minEdge {
			return File{}, ErrBudget
		}
		img = render(img, w, h)
	}
}

// encodeWithinBudget returns nil data when even MinQuality exceeds MaxBytes.
func (c *Compressor) encodeWithinBudget(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	for q := c.opts.StartQuality; ; q -= qualityStep {
		if q < c.opts.MinQuality {
			q = c.opts.MinQuality
		}
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("imaging: encode: %w", err)
		}
		if buf.Len() <= c.opts.MaxBytes {
			return bytes.Clone(buf.Bytes()), nil
		}
		if q == c.opts.MinQuality {
			return nil, nil
		}
	}
}

// fitWithin scales (w, h) down to fit the box, preserving aspect ratio. It
// never scales up.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	return min(nw, maxW), min(nh, maxH)
}

// render draws src onto a white w×h canvas. Transparent areas become white
// because JPEG has no alpha channel.
func render(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	sb := src.Bounds()
	if sb.Dx() == w && sb.Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	return dst
}

func jpegName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "image"
	}
	return base + ".jpg"
}
