package tests

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-faster/errors"
)

// Test suites too big to be part of the repository are looked up on disk,
// tests using them are skipped if they're not found.
const (
	// Directory containing a checkout of christopherpow/nes-test-roms.
	RomsEnv = "NESCORE_TEST_ROMS"
	// Directory containing the nes6502/v1 JSON files of SingleStepTests/65x02.
	ProcTestsEnv = "NESCORE_PROC_TESTS"
)

// lookupDir returns the directory set in the env variable, or the directory
// named def next to this file. The test is skipped if neither exists.
func lookupDir(tb testing.TB, env, def string) string {
	tb.Helper()

	dir := os.Getenv(env)
	if dir == "" {
		_, b, _, _ := runtime.Caller(0)
		dir = filepath.Join(filepath.Dir(b), def)
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		tb.Skipf("%s not found, set %s to run this test", dir, env)
	}
	return dir
}

// RomsPath returns the path of the nes-test-roms directory.
func RomsPath(tb testing.TB) string {
	return lookupDir(tb, RomsEnv, "nes-test-roms")
}

// ProcTestsPath returns the path of the directory containing one JSON file per
// opcode (00.json to ff.json) in the single step format.
func ProcTestsPath(tb testing.TB) string {
	return lookupDir(tb, ProcTestsEnv, "tomharte.processor.tests")
}
