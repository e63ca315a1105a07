// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	goruntime "runtime"
	"testing"

	"github.com/pyboot/pyboot/internal/testutil"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"pyboot": func() { os.Exit(Main()) },
	})
}

// TestCLI runs all testscript tests in the testdata directory. Each script
// gets a fake python3 reporting 3.12.1 first on PATH; its invocation log is
// $WORK/bin/python3.log.
func TestCLI(t *testing.T) {
	if goruntime.GOOS == "windows" {
		t.Skip("fake interpreter is a POSIX shell script")
	}

	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			fake, err := testutil.WriteFakePython(filepath.Join(env.WorkDir, "bin"), "python3", "3.12.1")
			if err != nil {
				return err
			}
			env.Setenv("PATH", fake.Dir+string(os.PathListSeparator)+env.Getenv("PATH"))
			return nil
		},
		// Continue running all tests even if one fails
		ContinueOnError: true,
	})
}
