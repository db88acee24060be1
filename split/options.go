package split

import (
	"errors"
	"fmt"
)

// DefaultSize is the selector limit of legacy Internet Explorer versions.
const DefaultSize = 4000

var (
	// ErrInvalidSize is returned when selector limit is negative.
	ErrInvalidSize = errors.New("size must be a positive number of selectors")
	// ErrMissingAsset is returned when bundle lists a file the asset set does
	// not have.
	ErrMissingAsset = errors.New("asset is missing")
)

// Options configure the plugin.
type Options struct {
	// Size is maximum number of selectors in a single output file, 0 means
	// DefaultSize.
	Size int
	// Imports controls the manifest re-importing produced chunks: nil or
	// false disables it, true names it after the original file (or
	// "[name]-split.[ext]" when Preserve is set), a string is a file name
	// template.
	Imports any
	// Filename is a file name template for chunks, "[name]-[part].[ext]"
	// when empty.
	Filename string
	// Preserve keeps original asset in place after splitting.
	Preserve bool
	// Defer moves processing from asset optimization stage to emit.
	Defer bool
}

func (o Options) size() (int, error) {
	switch {
	case o.Size == 0:
		return DefaultSize, nil
	case o.Size < 0:
		return 0, fmt.Errorf("%w: %d", ErrInvalidSize, o.Size)
	}
	return o.Size, nil
}
