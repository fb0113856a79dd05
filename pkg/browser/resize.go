package browser

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// maxScreenshotDim caps the longest side of captured screenshots. They are
// base64'd into vision prompts, so oversized frames inflate every reasoning
// call.
const maxScreenshotDim = 1024

// downscaleScreenshot rewrites the PNG at path so its longest side is at most
// maxDim pixels, preserving aspect ratio. Images already within the cap are
// left untouched.
func downscaleScreenshot(path string, maxDim int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open screenshot: %w", err)
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to decode screenshot: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return nil
	}

	longest := width
	if height > longest {
		longest = height
	}
	scale := float64(maxDim) / float64(longest)

	newWidth := int(float64(width)*scale + 0.5)
	newHeight := int(float64(height)*scale + 0.5)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to rewrite screenshot: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, dst); err != nil {
		return fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return nil
}
