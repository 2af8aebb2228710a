package dataset

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/autoanalyst-cli/internal/frame"
)

// Reader decodes one tabular file format into a header and string rows.
type Reader interface {
	CanRead(filename string) bool
	Read(r io.Reader) (header []string, rows [][]string, err error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ErrUnsupported indicates a file format has no registered reader.
var ErrUnsupported = errors.New("unsupported dataset format")

// ErrMalformed indicates content that its format's reader cannot decode.
var ErrMalformed = errors.New("malformed dataset")

// ReaderFor selects a reader based on the filename extension.
func ReaderFor(filename string) (Reader, error) {
	for _, r := range registry {
		if r.CanRead(filename) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(filename))
}

// Decode reads a dataset in the format implied by filename.
func Decode(filename string, r io.Reader) (*frame.Dataset, error) {
	rd, err := ReaderFor(filename)
	if err != nil {
		return nil, err
	}
	header, rows, err := rd.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: %s: no header row", ErrMalformed, filepath.Base(filename))
	}
	return frame.FromRecords(header, rows), nil
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func init() {
	Register(csvReader{comma: ',', exts: []string{".csv", ".txt"}})
	Register(csvReader{comma: '\t', exts: []string{".tsv"}})
	Register(xlsxReader{})
}
