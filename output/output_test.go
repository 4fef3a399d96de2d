package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	imagegen "github.com/wolfmcnally/image-gen"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestResolve_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	paths := Resolve(ResolveOptions{Count: 3})
	require.Equal(t, []string{"generated_1.png", "generated_2.png", "generated_3.png"}, paths)
}

func TestResolve_SkipsExisting(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "generated_1.png"))
	touch(t, filepath.Join(dir, "generated_3.png"))

	paths := Resolve(ResolveOptions{
		Output: filepath.Join(dir, "generated.png"),
		Count:  2,
	})
	require.Equal(t, []string{
		filepath.Join(dir, "generated_2.png"),
		filepath.Join(dir, "generated_4.png"),
	}, paths)
}

func TestResolve_BaseFromLastInput(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		filepath.Join(dir, "style.jpg"),
		filepath.Join(dir, "photo.jpg"),
	}

	paths := Resolve(ResolveOptions{InputPaths: inputs, Count: 2})
	require.Equal(t, []string{
		filepath.Join(dir, "photo_1.png"),
		filepath.Join(dir, "photo_2.png"),
	}, paths)
}

func TestResolve_SingleWithLowestFreeSuffix(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "cat_1.png"))
	inputs := []string{filepath.Join(dir, "cat.png")}

	paths := Resolve(ResolveOptions{InputPaths: inputs, Count: 1})
	require.Equal(t, []string{filepath.Join(dir, "cat_2.png")}, paths)
}

func TestResolve_ExplicitOutputSingle(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "final.png")
	// An existing file at the explicit path does not trigger suffixing.
	touch(t, out)

	paths := Resolve(ResolveOptions{Output: out, Count: 1})
	require.Equal(t, []string{out}, paths)
}

func TestResolve_ExplicitOutputMultiple(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "art_1.jpg"))

	paths := Resolve(ResolveOptions{
		Output: filepath.Join(dir, "art.jpg"),
		Count:  2,
	})
	require.Equal(t, []string{
		filepath.Join(dir, "art_2.jpg"),
		filepath.Join(dir, "art_3.jpg"),
	}, paths)
}

func TestResolve_ExplicitOutputWithoutExtension(t *testing.T) {
	dir := t.TempDir()

	paths := Resolve(ResolveOptions{
		Output: filepath.Join(dir, "render"),
		Count:  2,
	})
	require.Equal(t, []string{
		filepath.Join(dir, "render_1.png"),
		filepath.Join(dir, "render_2.png"),
	}, paths)
}

func TestResolve_Idempotent(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "generated_2.png"))
	opts := ResolveOptions{
		Output: filepath.Join(dir, "generated.png"),
		Count:  3,
	}

	first := Resolve(opts)
	second := Resolve(opts)
	require.Equal(t, first, second)
	require.Equal(t, []string{
		filepath.Join(dir, "generated_1.png"),
		filepath.Join(dir, "generated_3.png"),
		filepath.Join(dir, "generated_4.png"),
	}, first)
}

func TestResolve_ZeroCount(t *testing.T) {
	require.Nil(t, Resolve(ResolveOptions{Count: 0}))
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.png"),
	}
	images := []imagegen.Image{
		{Data: []byte("first"), Format: "png"},
		{Data: []byte("second"), Format: "png"},
	}

	results := WriteAll(paths, images)
	require.Len(t, results, 2)
	for i, res := range results {
		require.NoError(t, res.Err)
		require.Equal(t, paths[i], res.Path)
		data, err := os.ReadFile(res.Path)
		require.NoError(t, err)
		require.Equal(t, images[i].Data, data)
	}
}

func TestWriteAll_ContinuesPastFailure(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "missing", "a.png"),
		filepath.Join(dir, "b.png"),
	}
	images := []imagegen.Image{
		{Data: []byte("first"), Format: "png"},
		{Data: []byte("second"), Format: "png"},
	}

	results := WriteAll(paths, images)
	require.Len(t, results, 2)

	require.Error(t, results[0].Err)
	require.True(t, imagegen.IsIO(results[0].Err))

	require.NoError(t, results[1].Err)
	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	require.Equal(t, []byte("second"), data)
}
