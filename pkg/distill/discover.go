package distill

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover enumerates candidate source files for a run. A regular-file input
// yields at most one candidate (the pattern is ignored, non-PDF files yield
// none). A directory input is globbed flat by default or walked when
// recursive is set; in both cases the pattern matches base names. Results
// are sorted lexicographically so repeated runs and their logs are
// reproducible. A missing input, or one that is neither regular file nor
// directory, fails with ErrDiscovery, which is fatal before any job runs.
func Discover(input, pattern string, recursive bool) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}

	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDiscovery, input, err)
	}
	switch {
	case info.Mode().IsRegular():
		if isSourceFile(input) {
			return []string{input}, nil
		}
		return nil, nil
	case info.IsDir():
	default:
		return nil, fmt.Errorf("%w: %s is neither a regular file nor a directory", ErrDiscovery, input)
	}

	var paths []string
	if recursive {
		walkErr := filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			ok, merr := filepath.Match(pattern, d.Name())
			if merr != nil {
				return merr
			}
			if ok && isSourceFile(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("%w: walking %s: %v", ErrDiscovery, input, walkErr)
		}
	} else {
		matches, merr := filepath.Glob(filepath.Join(input, pattern))
		if merr != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrDiscovery, pattern, merr)
		}
		for _, m := range matches {
			fi, serr := os.Stat(m)
			if serr != nil || !fi.Mode().IsRegular() {
				continue
			}
			if isSourceFile(m) {
				paths = append(paths, m)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func isSourceFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), sourceExt)
}
