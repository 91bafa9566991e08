package trx

import (
	"os"
	"path/filepath"
	"strings"
)

// ArtifactSuffix is the file name suffix of TRX result artifacts.
const ArtifactSuffix = ".trx"

// FindLatest returns the path of the most recently modified result artifact
// in dir, or "" when none exists. Ties on modification time go to the
// lexicographically greater name so identical filesystem state always yields
// the same pick. Filesystem errors while listing or stat-ing are treated as
// "no candidate"; an empty results directory is a legitimate first-run
// state, never an error.
func FindLatest(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var bestPath, bestName string
	var bestMod int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(strings.ToLower(name), ArtifactSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		mod := info.ModTime().UnixNano()
		if bestPath == "" || mod > bestMod || (mod == bestMod && name > bestName) {
			bestPath = filepath.Join(dir, name)
			bestName = name
			bestMod = mod
		}
	}

	return bestPath
}
