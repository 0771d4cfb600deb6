package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResizedMarker tags files written by the resizer
const ResizedMarker = "_resized"

// FileStem returns the last path segment up to its first dot
// ("shots/cat.v2.png" -> "cat")
func FileStem(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}

// renameStem replaces the first occurrence of the stem in the last path segment
func renameStem(path, stem, replacement string) string {
	dir, base := filepath.Split(path)
	return dir + strings.Replace(base, stem, replacement, 1)
}

// ConvertPath swaps the last extension of path for ext.
// ext may be given with or without its leading dot.
func ConvertPath(path, ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(path), name+"."+ext)
}

// CutoutPath returns the first free save path for a cutout of path:
// {stem}_cutout, then {stem}_cutout_1, {stem}_cutout_2, ...
func CutoutPath(path string, exists func(string) bool) string {
	stem := FileStem(path)
	savePath := renameStem(path, stem, stem+"_cutout")
	for n := 1; exists(savePath); n++ {
		savePath = renameStem(path, stem, fmt.Sprintf("%s_cutout_%d", stem, n))
	}
	return savePath
}

// ResizedPath returns the save path for a resized copy of path.
// It reports false when path already names resizer output.
func ResizedPath(path string, width, height int) (string, bool) {
	stem := FileStem(path)
	if strings.Contains(stem, ResizedMarker) {
		return "", false
	}
	return renameStem(path, stem, fmt.Sprintf("%s_%dx%d%s", stem, width, height, ResizedMarker)), true
}
