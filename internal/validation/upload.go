package validation

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// maxImagePixels bounds decoded dimensions so a small file cannot expand
// into an enormous bitmap.
const maxImagePixels = 50_000_000

// extensionTypes maps every extension we know how to verify to its MIME family.
var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// decoderFormats maps a MIME type to the name registered by its image decoder.
var decoderFormats = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ImageInfo describes an accepted upload.
type ImageInfo struct {
	Ext         string
	ContentType string
	Width       int
	Height      int
}

// ImageValidator gates uploaded images.
type ImageValidator struct {
	maxBytes int64
	allowed  map[string]string
}

// NewImageValidator builds a validator accepting the given extensions (only
// those with a known image family are honored) up to maxBytes.
func NewImageValidator(extensions []string, maxBytes int64) *ImageValidator {
	v := &ImageValidator{maxBytes: maxBytes, allowed: make(map[string]string)}
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if mime, ok := extensionTypes[ext]; ok {
			v.allowed[ext] = mime
		}
	}
	return v
}

// MaxBytes returns the configured size ceiling.
func (v *ImageValidator) MaxBytes() int64 {
	return v.maxBytes
}

// CheckExtension rejects filenames whose extension is not allowed.
func (v *ImageValidator) CheckExtension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	mime, ok := v.allowed[ext]
	if !ok {
		return "", Reject(ReasonDisallowedExtension, "file type %q is not allowed", ext)
	}
	return mime, nil
}

// CheckSize rejects uploads larger than the configured ceiling.
func (v *ImageValidator) CheckSize(size int64) error {
	if size > v.maxBytes {
		return Reject(ReasonFileTooLarge, "file exceeds the %d MiB limit", v.maxBytes>>20)
	}
	return nil
}

// Validate runs every upload check in order: extension, size, content sniff,
// then a full decode.
func (v *ImageValidator) Validate(filename string, data []byte) (*ImageInfo, error) {
	want, err := v.CheckExtension(filename)
	if err != nil {
		return nil, err
	}
	if err := v.CheckSize(int64(len(data))); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, Reject(ReasonCorruptImage, "file is empty")
	}

	sniffed := mimetype.Detect(data)
	if !sniffed.Is(want) {
		return nil, Reject(ReasonContentMismatch, "file content (%s) does not match its extension", sniffed.String())
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || format != decoderFormats[want] {
		return nil, Reject(ReasonCorruptImage, "file is not a valid image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxImagePixels {
		return nil, Reject(ReasonCorruptImage, "image dimensions are not acceptable")
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return nil, Reject(ReasonCorruptImage, "file is not a valid image")
	}

	return &ImageInfo{
		Ext:         strings.ToLower(filepath.Ext(filename)),
		ContentType: want,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
