package source

import (
	"context"
	"fmt"
	"os"

	apperrors "kbpulse/internal/errors"
)

// FileSource reads a workbook that is already on disk
type FileSource struct {
	Path string
}

// Fetch reads and sniffs the file
func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTransportError("read cancelled", err)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, apperrors.NewInputError("fetch", fmt.Sprintf("cannot read workbook %q: %v", s.Path, err))
	}
	if err := Sniff(data); err != nil {
		return nil, err
	}
	return data, nil
}
