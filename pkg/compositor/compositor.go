// Package compositor stacks photos into a single reel image in-process.
package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// JPEGQuality is the encoder quality used for composed reels.
const JPEGQuality = 90

// Geometry describes where each photo lands on the canvas.
type Geometry interface {
	FinalWidth() int
	FinalHeight() int
	Slot(i int) image.Rectangle
}

// Compositor turns raw photo bytes into one JPEG.
type Compositor struct {
	geometry Geometry
}

func New(geometry Geometry) *Compositor {
	return &Compositor{geometry: geometry}
}

// Compose decodes every photo, cover-fits it to its slot and pastes it onto a
// white canvas in order (index 0 on top). Resizes run concurrently; assembly
// and encoding are serial.
func (c *Compositor) Compose(ctx context.Context, photos [][]byte) ([]byte, error) {
	if len(photos) == 0 {
		return nil, fmt.Errorf("no photos to compose")
	}

	fitted := make([]image.Image, len(photos))
	g, ctx := errgroup.WithContext(ctx)
	for i, raw := range photos {
		i, raw := i, raw
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
			if err != nil {
				return fmt.Errorf("failed to decode photo %d: %w", i, err)
			}
			slot := c.geometry.Slot(i)
			fitted[i] = imaging.Fill(src, slot.Dx(), slot.Dy(), imaging.Center, imaging.Lanczos)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	canvas := imaging.New(c.geometry.FinalWidth(), c.geometry.FinalHeight(), color.White)
	for i, img := range fitted {
		canvas = imaging.Paste(canvas, img, c.geometry.Slot(i).Min)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode reel: %w", err)
	}
	return buf.Bytes(), nil
}
