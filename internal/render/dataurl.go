package render

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/example/forgery-check/internal/workflow"
)

var ErrInvalidDataURL = errors.New("invalid base64 data URL")

// DecodeDataURL splits a "data:<mime>;base64,<payload>" string into its MIME
// type and decoded bytes.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Join(ErrInvalidDataURL, err)
	}
	return mime, data, nil
}

// Asset returns the download descriptor and data URL for a named result
// image, if the snapshot has one.
func Asset(s workflow.Snapshot, asset string) (Download, string, bool) {
	if s.State != workflow.Results || s.Segmentation == nil {
		return Download{}, "", false
	}
	for _, d := range downloads() {
		if d.Asset != asset {
			continue
		}
		if asset == AssetMask {
			return d, s.Segmentation.Mask, true
		}
		return d, s.Segmentation.MaskedImage, true
	}
	return Download{}, "", false
}
