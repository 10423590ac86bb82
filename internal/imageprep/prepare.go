// Package imageprep downsizes and recompresses images before upload.
package imageprep

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"path"
	"strings"
	"time"

	"github.com/ayo6706/merchant-gateway/internal/observability"
	"github.com/ayo6706/merchant-gateway/internal/upload"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	// Register decoders for image.Decode.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 800
	DefaultQuality      = 50
	OutputContentType   = "image/jpeg"
	outputExt           = ".jpg"

	// MaxPixels bounds the decoded canvas; dimensions are read from the
	// header before any pixel data is allocated.
	MaxPixels = 50_000_000
)

// Preparer turns selected images into bounded, recompressed JPEGs.
type Preparer struct {
	maxDimension int
	quality      int
	now          func() time.Time
	logger       *zap.Logger
}

// New returns a Preparer with the default 800px bound and 0.5 quality.
func New(logger *zap.Logger) *Preparer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preparer{
		maxDimension: DefaultMaxDimension,
		quality:      DefaultQuality,
		now:          time.Now,
		logger:       logger,
	}
}

// WithMaxDimension overrides the longest-side bound.
func (p *Preparer) WithMaxDimension(n int) *Preparer {
	if n > 0 {
		p.maxDimension = n
	}
	return p
}

// WithQuality overrides the JPEG quality (1-100).
func (p *Preparer) WithQuality(q int) *Preparer {
	if q >= 1 && q <= 100 {
		p.quality = q
	}
	return p
}

// WithClock overrides the clock used for the output modification time.
func (p *Preparer) WithClock(now func() time.Time) *Preparer {
	p.now = now
	return p
}

// Prepare returns f unchanged when it is not an image. Images are decoded,
// scaled so the longer side fits maxDimension and re-encoded as JPEG.
// The input is never mutated.
func (p *Preparer) Prepare(ctx context.Context, f upload.File) (upload.File, error) {
	if !f.IsImage() {
		observability.IncrementImagePreparation("passthrough")
		return f, nil
	}
	if err := ctx.Err(); err != nil {
		return upload.File{}, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		observability.IncrementImagePreparation("decode_error")
		return upload.File{}, &DecodeError{Name: f.Name, Err: err}
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		observability.IncrementImagePreparation("too_many_pixels")
		return upload.File{}, &DecodeError{Name: f.Name, Err: fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)}
	}

	src, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		observability.IncrementImagePreparation("decode_error")
		return upload.File{}, &DecodeError{Name: f.Name, Err: err}
	}

	bounds := src.Bounds()
	width, height := TargetSize(bounds.Dx(), bounds.Dy(), p.maxDimension)

	// JPEG has no alpha; flatten onto white the way a canvas export would.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	}

	if err := ctx.Err(); err != nil {
		return upload.File{}, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.quality}); err != nil {
		observability.IncrementImagePreparation("encode_error")
		return upload.File{}, &EncodeError{Name: f.Name, Err: err}
	}
	if buf.Len() == 0 {
		observability.IncrementImagePreparation("encode_error")
		return upload.File{}, &EncodeError{Name: f.Name, Err: errEmptyOutput}
	}

	out := upload.File{
		Name:        ReplaceExt(f.Name, outputExt),
		ContentType: OutputContentType,
		Size:        int64(buf.Len()),
		ModTime:     p.now(),
		Data:        buf.Bytes(),
	}

	observability.IncrementImagePreparation("ok")
	p.logger.Debug("image prepared",
		zap.String("name", f.Name),
		zap.String("from", humanize.IBytes(uint64(f.Size))),
		zap.String("to", humanize.IBytes(uint64(out.Size))),
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return out, nil
}

// TargetSize clamps the longer side to max while keeping the aspect ratio.
// Images already within the bound are returned as-is.
func TargetSize(width, height, max int) (int, int) {
	if width > height {
		if width > max {
			height = int(math.Round(float64(height) * float64(max) / float64(width)))
			width = max
		}
	} else if height > max {
		width = int(math.Round(float64(width) * float64(max) / float64(height)))
		height = max
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

// ReplaceExt swaps the last extension of name for ext. Names without an
// extension are left alone.
func ReplaceExt(name, ext string) string {
	old := path.Ext(name)
	if old == "" || old == name {
		return name
	}
	return strings.TrimSuffix(name, old) + ext
}

var errEmptyOutput = fmt.Errorf("encoder returned no data")
