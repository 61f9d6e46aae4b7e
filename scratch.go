package img2ascii

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
)

// Scratch is a private temporary directory for one pipeline invocation.
// OpenCV reads and writes containers through file names, so video input
// and output pass through here. The caller owns the Scratch and must
// Close it once the result has been delivered.
type Scratch struct {
	dir  string
	next atomic.Int64
}

// NewScratch creates a uniquely named directory under parent. An empty
// parent means os.TempDir().
func NewScratch(parent string) (*Scratch, error) {
	dir, err := os.MkdirTemp(parent, "img2ascii-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &Scratch{dir: dir}, nil
}

// Dir returns the directory path.
func (s *Scratch) Dir() string {
	return s.dir
}

// Path returns a fresh file name inside the scratch directory with the
// given extension (including the dot). Each call returns a new name.
func (s *Scratch) Path(ext string) string {
	n := s.next.Add(1)
	return filepath.Join(s.dir, fmt.Sprintf("media-%04d%s", n, ext))
}

// Close removes the directory and everything in it.
func (s *Scratch) Close() error {
	if s == nil || s.dir == "" {
		return nil
	}
	return os.RemoveAll(s.dir)
}
