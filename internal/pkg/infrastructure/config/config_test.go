package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestLoad(t *testing.T) {
	is := is.New(t)
	path := writeConfig(t, "stations:\n  - N0CALL-9\n  - OH7RDA\n")

	cfg, err := Load(path)

	is.NoErr(err)
	is.Equal(cfg.Stations, []string{"N0CALL-9", "OH7RDA"})
}

func TestLoadTrimsBlankEntries(t *testing.T) {
	is := is.New(t)
	path := writeConfig(t, "stations:\n  - N0CALL-9\n  - \"  \"\n  - \" OH7RDA \"\n")

	cfg, err := Load(path)

	is.NoErr(err)
	is.Equal(cfg.Stations, []string{"N0CALL-9", "OH7RDA"})
}

func TestLoadFailsWithoutStations(t *testing.T) {
	is := is.New(t)
	path := writeConfig(t, "stations: []\n")

	_, err := Load(path)

	is.True(err != nil)
}

func TestLoadFailsOnMissingFile(t *testing.T) {
	is := is.New(t)

	_, err := Load(filepath.Join(t.TempDir(), "no-such-file.yaml"))

	is.True(err != nil)
}

func TestLoadFailsOnBrokenYAML(t *testing.T) {
	is := is.New(t)
	path := writeConfig(t, "stations: [unterminated\n")

	_, err := Load(path)

	is.True(err != nil)
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stations.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}
