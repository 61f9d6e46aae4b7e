package img2ascii

import (
	"errors"
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

// decodeVideo stages data in the scratch area, opens it with OpenCV and
// reads frames until the container reports no more. The container's
// frame rate is kept, falling back to DefaultFrameRate when it is not
// usable.
func decodeVideo(data []byte, cfg *decodeConfig) (*Sequence, error) {
	if cfg.scratch == nil {
		return nil, configErrorf("scratch", "video input needs a scratch area")
	}

	path := cfg.scratch.Path(videoExt(data))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage video: %w", err)
	}
	// The staged copy is only needed while the capture is open.
	defer os.Remove(path)

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, &DecodeError{Kind: KindVideo, Err: err}
	}
	defer capture.Close()
	if !capture.IsOpened() {
		return nil, &DecodeError{Kind: KindVideo, Err: errors.New("container could not be opened")}
	}

	fps := normalizeFrameRate(capture.Get(gocv.VideoCaptureFPS))

	mat := gocv.NewMat()
	defer mat.Close()

	var frames []Frame
	for !cfg.full(len(frames)) {
		if ok := capture.Read(&mat); !ok || mat.Empty() {
			break
		}
		img, err := mat.ToImage()
		if err != nil {
			break
		}
		frames = append(frames, Frame{Image: img, Index: len(frames)})
	}

	if len(frames) == 0 {
		return nil, &DecodeError{Kind: KindVideo, Err: errors.New("no readable frames")}
	}
	return &Sequence{
		Kind:      KindVideo,
		Frames:    frames,
		FrameRate: fps,
	}, nil
}
