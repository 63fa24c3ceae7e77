package normalizer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	_ "image/gif"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/docvision/docvision-api/internal/models"
	"github.com/docvision/docvision-api/internal/utils"
)

// mimeByExtension maps accepted image extensions to the MIME type sent
// to the provider. BMP and TIFF are not accepted by vision APIs and are
// re-encoded to PNG.
var mimeByExtension = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/png",
	".tiff": "image/png",
}

// normalizeImage produces exactly one Image block. The raw bytes pass
// through unchanged unless the format needs conversion or the image
// exceeds the provider's dimension limit.
func (n *Normalizer) normalizeImage(file *models.UploadedFile) (*models.NormalizedDocument, error) {
	mimeType := mimeByExtension[file.Extension]

	data := file.Data
	switch file.Extension {
	case ".bmp", ".tiff":
		converted, err := n.reencodePNG(data, file.Extension)
		if err != nil {
			return nil, utils.NewDocumentCorruptError(
				fmt.Sprintf("cannot decode %s image", file.Extension), err)
		}
		data = converted
	default:
		// Decoding the header both validates the file and gives us the
		// dimensions for the downscale check.
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, utils.NewDocumentCorruptError(
				fmt.Sprintf("cannot decode %s image", file.Extension), err)
		}

		if cfg.Width > n.maxDim || cfg.Height > n.maxDim {
			resized, resizedMime, err := n.downscale(data, mimeType)
			if err != nil {
				return nil, utils.NewDocumentCorruptError("cannot resize image", err)
			}
			data = resized
			mimeType = resizedMime
		}
	}

	block := models.ContentBlock{
		Type:       models.BlockImage,
		MimeType:   mimeType,
		Base64Data: base64.StdEncoding.EncodeToString(data),
		Page:       1,
		Source:     file.Filename,
	}

	n.logger.Debug("normalized image",
		"filename", file.Filename,
		"mime_type", mimeType,
		"bytes", len(data))

	return &models.NormalizedDocument{
		Kind:      models.SourceImage,
		Blocks:    []models.ContentBlock{block},
		PageCount: 1,
	}, nil
}

// reencodePNG decodes a BMP or TIFF payload and re-encodes it as PNG,
// downscaling on the way if needed.
func (n *Normalizer) reencodePNG(data []byte, ext string) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	switch ext {
	case ".bmp":
		img, err = bmp.Decode(bytes.NewReader(data))
	case ".tiff":
		img, err = tiff.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unexpected extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, n.fitToMaxDim(img)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitToMaxDim resizes an image so its longest side fits n.maxDim,
// preserving aspect ratio. Images already within the limit are returned
// unchanged.
func (n *Normalizer) fitToMaxDim(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= n.maxDim && h <= n.maxDim {
		return img
	}

	ratio := float64(n.maxDim) / float64(w)
	if hr := float64(n.maxDim) / float64(h); hr < ratio {
		ratio = hr
	}
	newW := int(float64(w) * ratio)
	newH := int(float64(h) * ratio)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// downscale re-encodes an image payload that may exceed the dimension
// limit. JPEG sources stay JPEG (quality 85); everything else becomes
// PNG. Payloads already within the limit pass through untouched.
func (n *Normalizer) downscale(data []byte, mimeType string) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	fitted := n.fitToMaxDim(img)
	if fitted == img {
		return data, mimeType, nil
	}

	var buf bytes.Buffer
	if mimeType == "image/jpeg" {
		if err := jpeg.Encode(&buf, fitted, &jpeg.Options{Quality: 85}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}

	if err := png.Encode(&buf, fitted); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/png", nil
}
