// Package imaging converts gallery photos between the formats offered for download
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

const jpegQuality = 92

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// ParseFormat accepts the download query values. Empty means jpeg.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

func (f Format) Ext() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".jpg"
}

// DecodeConfig reads only the header of an image to get its dimensions. The
// format is sniffed from the bytes, so it holds whatever the source was named.
func DecodeConfig(r io.Reader) (image.Config, Format, error) {
	cfg, name, err := image.DecodeConfig(r)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("unable to read image config, %w", err)
	}
	return cfg, Format(name), nil
}

// Convert decodes any registered format from r and writes it to w as format.
func Convert(r io.Reader, format Format, w io.Writer) error {
	img, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	switch format {
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("failed to encode png: %w", err)
		}
	case FormatJPEG:
		if err := jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("failed to encode jpeg: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return nil
}

// flatten draws img over white so transparent areas don't turn black in a jpeg.
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(out, bounds, img, bounds.Min, draw.Over)
	return out
}
