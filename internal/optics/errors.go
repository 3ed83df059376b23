package optics

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks invalid physical or pipeline parameters. It is
// always raised at construction time and is fatal for the run.
var ErrConfiguration = errors.New("invalid optical configuration")

// ShapeError reports a dimension mismatch between a field, mask or image
// and the shape the pipeline was configured for. It is fatal for the call
// that produced it but not for a surrounding optimizer run.
type ShapeError struct {
	WantW, WantH int
	GotW, GotH   int
}

func (e ShapeError) Error() string {
	return fmt.Sprintf("shape mismatch: want %dx%d, got %dx%d", e.WantW, e.WantH, e.GotW, e.GotH)
}
