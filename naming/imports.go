package naming

import (
	"errors"
	"fmt"
)

// ErrInvalidImports is returned for imports values of unsupported type.
var ErrInvalidImports = errors.New("imports must be a boolean or a non empty string")

// ImportsFunc returns manifest file name for a split asset. ok is false when
// no manifest should be produced.
type ImportsFunc func(c Context) (name string, ok bool, err error)

// SplitSuffixFilename is manifest name used when original asset is preserved.
const SplitSuffixFilename = "[name]-split.[ext]"

// NormalizeImports converts imports setting into naming function once, so
// the setting is validated before anything runs.
func NormalizeImports(value any, preserve bool) (ImportsFunc, error) {
	switch v := value.(type) {
	case nil:
		return disabled, nil
	case bool:
		switch {
		case !v:
			return disabled, nil
		case preserve:
			// original stays in place, manifest must not collide with it
			return fromPattern(SplitSuffixFilename)
		default:
			return func(c Context) (string, bool, error) { return c.File, true, nil }, nil
		}
	case string:
		if v == "" {
			return nil, fmt.Errorf("%w: empty string", ErrInvalidImports)
		}
		return fromPattern(v)
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidImports, value)
	}
}

func disabled(Context) (string, bool, error) {
	return "", false, nil
}

func fromPattern(pattern string) (ImportsFunc, error) {
	t, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	return func(c Context) (string, bool, error) {
		name, err := t.Execute(c)
		if err != nil {
			return "", false, err
		}
		return name, true, nil
	}, nil
}
