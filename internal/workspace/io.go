package workspace

import (
	"os"
	"strings"
)

func filepathStat(p string) (os.FileInfo, error) {
	return os.Stat(p)
}

// readMarkerFile reads a prefix-marker file's contents and trims
// surrounding whitespace/newlines: the file's sole content is the
// virtual path.
func readMarkerFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
