package products

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxPhotoBytes = 10 << 20
	// photoBox is the largest width and height a stored photo keeps.
	photoBox     = 800
	photoQuality = 85
	// maxPhotoPixels bounds the decoded bitmap; a small file can declare huge dimensions.
	maxPhotoPixels = 40_000_000
)

var (
	errNoPhoto       = errors.New("photo is required")
	errPhotoTooBig   = errors.New("photo must be 10MB or less")
	errPhotoNotImage = errors.New("photo must be an image file")
	errPhotoPixels   = errors.New("photo must be 40 megapixels or less")
)

// parsePhoto reads the "photo" field of a multipart upload.
func parsePhoto(r *http.Request) (data []byte, fileName string, err error) {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type"))), "multipart/form-data") {
		return nil, "", errNoPhoto
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", errNoPhoto
		}
		return nil, "", err
	}
	defer file.Close()

	data, err = io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errNoPhoto
	}
	if len(data) > maxPhotoBytes {
		return nil, "", errPhotoTooBig
	}

	mimeType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", errPhotoNotImage
	}

	fileName = strings.TrimSpace(header.Filename)
	if fileName == "" {
		fileName = "photo.jpg"
	} else {
		fileName = filepath.Base(fileName)
	}
	return data, fileName, nil
}

// compressPhoto fits the image inside photoBox x photoBox, never upscaling, and re-encodes it as JPEG.
func compressPhoto(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode photo header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPhotoPixels {
		return nil, fmt.Errorf("%w: %dx%d", errPhotoPixels, cfg.Width, cfg.Height)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}
	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), photoBox)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: photoQuality}); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return out.Bytes(), nil
}

func fitWithin(w, h, box int) (int, int) {
	if w <= box && h <= box {
		return w, h
	}
	if w >= h {
		nh := h * box / w
		if nh < 1 {
			nh = 1
		}
		return box, nh
	}
	nw := w * box / h
	if nw < 1 {
		nw = 1
	}
	return nw, box
}

// jpegName swaps the extension of fileName for .jpg.
func jpegName(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if base == "" {
		base = "photo"
	}
	return base + ".jpg"
}
