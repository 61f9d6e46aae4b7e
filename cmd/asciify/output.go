package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wbrown/img2ascii"
	"github.com/wbrown/img2ascii/imageutil"
)

func marshalDocument(conv *img2ascii.Conversion) ([]byte, error) {
	out, err := json.MarshalIndent(conv.Document(), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// savePNG rasterizes the first frame and writes it straight to path.
func savePNG(p *img2ascii.Pipeline, conv *img2ascii.Conversion, path string) error {
	frames, err := p.RasterizeAll(conv.Results[:1])
	if err != nil {
		return err
	}
	if err := imageutil.SaveImage(frames[0].Image, path); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}
	return nil
}

// isUsageError reports errors caused by flag values rather than input.
func isUsageError(err error) bool {
	return errors.Is(err, img2ascii.ErrUnsupportedConfig)
}
