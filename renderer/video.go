package renderer

import (
	"fmt"

	"github.com/icza/mjpeg"
)

// VideoWriter collects JPEG frames into an MJPEG AVI file.
type VideoWriter struct {
	path   string
	aw     mjpeg.AviWriter
	frames int
}

// NewVideoWriter creates an AVI of width x height pixels at fps.
func NewVideoWriter(path string, width, height, fps int) (*VideoWriter, error) {
	aw, err := mjpeg.New(path, int32(width), int32(height), int32(max(fps, 1)))
	if err != nil {
		return nil, fmt.Errorf("create video %s: %w", path, err)
	}
	return &VideoWriter{path: path, aw: aw}, nil
}

// AddFrame appends one JPEG encoded frame.
func (v *VideoWriter) AddFrame(jpegData []byte) error {
	if err := v.aw.AddFrame(jpegData); err != nil {
		return fmt.Errorf("add frame %d to %s: %w", v.frames, v.path, err)
	}
	v.frames++
	return nil
}

// Frames returns the number of frames written.
func (v *VideoWriter) Frames() int { return v.frames }

// Path returns the output file path.
func (v *VideoWriter) Path() string { return v.path }

// Close finalizes the AVI index.
func (v *VideoWriter) Close() error {
	return v.aw.Close()
}
