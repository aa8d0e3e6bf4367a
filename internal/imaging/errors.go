package imaging

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedFileType = errors.New("imaging: unsupported file type")
	ErrDecode              = errors.New("imaging: cannot decode image")
	ErrBudget              = errors.New("imaging: image cannot be compressed within the byte budget")
	ErrTooLarge            = errors.New("imaging: image dimensions exceed the source limit")
)

// UnsupportedFileTypeError is returned for inputs whose content is not an image.
type UnsupportedFileTypeError struct {
	Name string
	MIME string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("imaging: %s is %s, not an image", e.Name, e.MIME)
}

func (e *UnsupportedFileTypeError) Unwrap() error { return ErrUnsupportedFileType }

// TooLargeError is returned before decoding when an input declares more pixels
// than the compressor accepts.
type TooLargeError struct {
	Name          string
	Width, Height int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("imaging: %s is %dx%d, too large to process", e.Name, e.Width, e.Height)
}

func (e *TooLargeError) Unwrap() error { return ErrTooLarge }

// Failure pairs a skipped input with the reason it was skipped.
type Failure struct {
	Name string
	Err  error
}

// ProcessingError reports the files a batch had to drop. It is a warning: the
// rest of the batch was processed.
type ProcessingError struct {
	Failures []Failure
}

func (e *ProcessingError) Error() string {
	return "imaging: could not process " + strings.Join(e.Names(), ", ")
}

// Names lists the failed file names in input order.
func (e *ProcessingError) Names() []string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Name
	}
	return names
}
