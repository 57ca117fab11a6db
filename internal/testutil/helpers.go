package testutil

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile writes content at path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// WritePDFStub creates a file that passes the gate's magic-header check and
// reports the given size. Sizes beyond the header are reached by truncation,
// so multi-megabyte stubs stay cheap and sparse.
func WritePDFStub(t *testing.T, path string, size int64) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	header := []byte("%PDF-1.4\n% test stub\n")
	require.NoError(t, os.WriteFile(path, header, 0o644))
	if size > int64(len(header)) {
		require.NoError(t, os.Truncate(path, size))
	}
}

// ReadEventRecords parses a JSON-lines event log into generic maps, one per
// record, in file order.
func ReadEventRecords(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec), "bad event record: %s", line)
		records = append(records, rec)
	}
	require.NoError(t, sc.Err())
	return records
}
