package pdfconv

import (
	"fmt"

	"github.com/docshelf/pdfdistill/pkg/distill"
)

// Resolve maps a backend identifier to a converter and prober pair. The
// prober is always the native reader. Auto prefers poppler for extraction
// when pdftotext is installed and quietly falls back to native otherwise.
func Resolve(backend string) (distill.Converter, distill.Prober, error) {
	native := NewNative()
	switch backend {
	case "", BackendAuto:
		if pop, err := NewPoppler(); err == nil {
			return pop, native, nil
		}
		return native, native, nil
	case BackendNative:
		return native, native, nil
	case BackendPoppler:
		pop, err := NewPoppler()
		if err != nil {
			return nil, nil, err
		}
		return pop, native, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (supported: %s, %s, %s)",
			backend, BackendAuto, BackendNative, BackendPoppler)
	}
}
