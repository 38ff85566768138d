package testutils

import (
	"os"
	"path/filepath"
	"testing"

	prof "github.com/opst/mlstudio/cmd/mlstudio/config/profiles"
	"gopkg.in/yaml.v3"
)

// TempProfile writes a profile store holding one profile into a temporary directory.
//
// It returns the path to the store file. The file is removed after the test.
func TempProfile(t *testing.T, name string, profile *prof.Profile) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profile")
	buf, err := yaml.Marshal(prof.ProfileStore{name: profile})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf, os.FileMode(0600)); err != nil {
		t.Fatal(err)
	}
	return path
}
