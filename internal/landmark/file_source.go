package landmark

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"blink-pin/internal/model"
	"blink-pin/internal/util"

	"go.uber.org/zap"
)

const maxLineBytes = 1 << 20

// FileSource replays frames from a JSON-lines recording, one frame per line.
type FileSource struct {
	file    *os.File
	scanner *bufio.Scanner
	line    int
}

// OpenFile opens a recording. Failure to open is reported as ErrDeviceUnavailable.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	return &FileSource{file: f, scanner: scanner}, nil
}

// NewReaderSource replays frames from any reader.
func NewReaderSource(r io.Reader) *FileSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &FileSource{scanner: scanner}
}

// Next returns the next well-formed frame. Malformed lines are logged and skipped.
func (s *FileSource) Next(ctx context.Context) (Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return Frame{}, fmt.Errorf("failed to read landmark recording: %w", err)
			}
			return Frame{}, io.EOF
		}
		s.line++

		data := bytes.TrimSpace(s.scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		frame, err := DecodeFrame(data)
		if err != nil {
			if errors.Is(err, ErrMalformedFrame) {
				util.Warn("Skipping malformed landmark frame",
					zap.Int("line", s.line),
					zap.Error(err))
				continue
			}
			return Frame{}, err
		}
		return frame, nil
	}
}

func (s *FileSource) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
