// Package output computes collision-free destination paths for generated
// images and persists image bytes to disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	imagegen "github.com/wolfmcnally/image-gen"
)

// Defaults for the derived portion of destination names.
const (
	DefaultBase = "generated"
	DefaultExt  = ".png"
)

// ResolveOptions describes one resolution pass.
type ResolveOptions struct {
	// Output is the explicit -o/--output path, or empty when none given.
	Output string

	// InputPaths are the input image paths in command-line order. The stem
	// and directory of the last one seed the default base name.
	InputPaths []string

	// Count is the number of destination paths to produce, normally the
	// actual number of images returned by the backend.
	Count int
}

// Resolve computes Count destination paths of the form {base}_{k}{ext},
// skipping names that already exist on disk. Names chosen earlier in the
// pass are reserved, so all returned paths are distinct even before any
// file is written. Resolve is a pure function of its options and the
// filesystem state at the time of the call.
//
// The base name comes from the explicit output path when given, else from
// the stem of the last input image, else "generated". The extension comes
// from the explicit output path when given, else ".png". When an explicit
// output path is given and Count is 1, that exact path is returned with no
// suffixing and no existence check.
func Resolve(opts ResolveOptions) []string {
	if opts.Count < 1 {
		return nil
	}
	if opts.Output != "" && opts.Count == 1 {
		return []string{opts.Output}
	}
	dir, base, ext := splitTarget(opts)
	paths := make([]string, 0, opts.Count)
	for k := 1; len(paths) < opts.Count; k++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, k, ext))
		if exists(candidate) {
			continue
		}
		paths = append(paths, candidate)
	}
	return paths
}

func splitTarget(opts ResolveOptions) (dir, base, ext string) {
	switch {
	case opts.Output != "":
		dir = filepath.Dir(opts.Output)
		name := filepath.Base(opts.Output)
		ext = filepath.Ext(name)
		base = strings.TrimSuffix(name, ext)
		if ext == "" {
			ext = DefaultExt
		}
	case len(opts.InputPaths) > 0:
		last := opts.InputPaths[len(opts.InputPaths)-1]
		dir = filepath.Dir(last)
		name := filepath.Base(last)
		base = strings.TrimSuffix(name, filepath.Ext(name))
		ext = DefaultExt
	default:
		dir = "."
		base = DefaultBase
		ext = DefaultExt
	}
	return dir, base, ext
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteResult reports the outcome of writing one image.
type WriteResult struct {
	Path string
	Err  error
}

// WriteAll writes each image to the path at the same position. A failed
// write is recorded in its result and does not stop or roll back the
// others; files written before a failure stay on disk. The two slices are
// expected to have equal length.
func WriteAll(paths []string, images []imagegen.Image) []WriteResult {
	n := min(len(paths), len(images))
	results := make([]WriteResult, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, WriteResult{Path: paths[i], Err: Write(paths[i], images[i])})
	}
	return results
}

// Write persists a single image to path.
func Write(path string, img imagegen.Image) error {
	if err := os.WriteFile(path, img.Data, 0644); err != nil {
		return imagegen.NewIOError(path, err)
	}
	return nil
}
