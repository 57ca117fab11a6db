package distill

import (
	"path/filepath"
	"strings"

	"github.com/docshelf/pdfdistill/pkg/distill/language"
)

// Job is the immutable descriptor of one file to process. Built by the
// dispatch loop from a discovered path plus the run options; never mutated
// afterwards. Terminal state travels in JobResult, not here.
type Job struct {
	// SourcePath is the discovered input file.
	SourcePath string
	// OutputPath is where converted content will be placed. Derived, see
	// OutputPathFor.
	OutputPath string
	// Language the document will be converted under.
	Language language.Language
	// OutputExt selects serialization.
	OutputExt OutputExt
	// SizeBytes is the source size at dispatch time.
	SizeBytes int64
	// Index is the zero-based discovery position, for stable diagnostics.
	Index int
}

// OutputPathFor computes the output location for a source file. It is a pure
// function of its arguments: <root>/<language>/<stem>.<ext>. Recomputing it
// across runs yields the same path, which is what makes already-done
// detection and re-runs idempotent.
func OutputPathFor(root, sourcePath string, lang language.Language, ext OutputExt) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(root, lang.String(), stem+"."+string(ext))
}
