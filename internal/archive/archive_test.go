package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruciblehq/hoist/internal/manifest"
)

// Writes files relative to root, creating parent directories.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// Reads a tar stream into an ordered list of names and a name->content map.
func readTar(t *testing.T, r io.Reader) ([]string, map[string]string) {
	t.Helper()
	var names []string
	contents := make(map[string]string)
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(tr)
		require.NoError(t, err)
		names = append(names, h.Name)
		contents[h.Name] = string(b)
	}
	return names, contents
}

type fakeResolver map[string]string

func (f fakeResolver) Resolve(coordinate string) (string, error) {
	if p, ok := f[coordinate]; ok {
		return p, nil
	}
	return "", ErrArtifactNotFound
}

func TestBuildContextLayout(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"dirA/file1": "one",
		"fileB":      "bee",
		"Dockerfile": "FROM scratch",
	})

	orders := [][]manifest.File{
		{
			{Source: filepath.Join(root, "Dockerfile")},
			{Source: filepath.Join(root, "dirA")},
			{Source: filepath.Join(root, "fileB"), Dest: "renamed"},
		},
		{
			{Source: filepath.Join(root, "fileB"), Dest: "renamed"},
			{Source: filepath.Join(root, "dirA")},
			{Source: filepath.Join(root, "Dockerfile")},
		},
	}

	for _, files := range orders {
		b := NewBuilder(nil)
		plan, err := b.Plan(manifest.Image{ID: "app", Files: files})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, b.Write(&buf, plan))

		names, contents := readTar(t, &buf)
		require.NotEmpty(t, names)
		assert.Equal(t, "Dockerfile", names[0])
		assert.ElementsMatch(t, []string{"Dockerfile", "dirA/file1", "renamed"}, names)
		assert.Equal(t, "FROM scratch", contents["Dockerfile"])
		assert.Equal(t, "one", contents["dirA/file1"])
		assert.Equal(t, "bee", contents["renamed"])
	}
}

func TestBuildContextNestedDirectoryAndDest(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Dockerfile":       "FROM scratch",
		"conf/a.yaml":      "a",
		"conf/sub/b.yaml":  "b",
		"target/app-1.jar": "jar",
	})

	b := NewBuilder(nil)
	plan, err := b.Plan(manifest.Image{ID: "app", Files: []manifest.File{
		{Source: filepath.Join(root, "conf"), Dest: "etc/app"},
		{Source: filepath.Join(root, "Dockerfile")},
		{Source: filepath.Join(root, "target/app-1.jar"), Dest: "/opt/app.jar"},
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Dockerfile", "etc/app/a.yaml", "etc/app/sub/b.yaml", "opt/app.jar"}, plan.Names())
}

func TestBuildContextArtifacts(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Dockerfile":          "FROM scratch",
		"repo/lib-1.0.jar":    "lib",
		"repo/driver-2.0.jar": "driver",
	})

	resolver := fakeResolver{
		"org:lib:1.0":    filepath.Join(root, "repo/lib-1.0.jar"),
		"org:driver:2.0": filepath.Join(root, "repo/driver-2.0.jar"),
	}
	b := NewBuilder(resolver)

	plan, err := b.Plan(manifest.Image{
		ID:    "app",
		Files: []manifest.File{{Source: filepath.Join(root, "Dockerfile")}},
		Artifacts: []manifest.Artifact{
			{Coordinate: "org:lib:1.0"},
			{Coordinate: "org:driver:2.0", Dest: "drivers/driver.jar"},
		},
	})
	require.NoError(t, err)

	body := b.Open(plan)
	defer body.Close()
	names, contents := readTar(t, body)
	assert.Equal(t, []string{"Dockerfile", "lib-1.0.jar", "drivers/driver.jar"}, names)
	assert.Equal(t, "driver", contents["drivers/driver.jar"])
}

func TestPlanFailures(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"Dockerfile": "FROM scratch"})
	dockerfile := manifest.File{Source: filepath.Join(root, "Dockerfile")}

	tests := []struct {
		name    string
		spec    manifest.Image
		wantErr error
	}{
		{
			name:    "no dockerfile",
			spec:    manifest.Image{ID: "x", Files: []manifest.File{{Source: filepath.Join(root, "other")}}},
			wantErr: manifest.ErrInvalidImage,
		},
		{
			name:    "missing dockerfile source",
			spec:    manifest.Image{ID: "x", Files: []manifest.File{{Source: filepath.Join(root, "missing", "Dockerfile")}}},
			wantErr: ErrArchiveIO,
		},
		{
			name:    "missing local file",
			spec:    manifest.Image{ID: "x", Files: []manifest.File{dockerfile, {Source: filepath.Join(root, "nope.jar")}}},
			wantErr: ErrArchiveIO,
		},
		{
			name:    "unresolved artifact",
			spec:    manifest.Image{ID: "x", Files: []manifest.File{dockerfile}, Artifacts: []manifest.Artifact{{Coordinate: "g:a:1"}}},
			wantErr: ErrArtifactNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(fakeResolver{}).Plan(tt.spec)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlanWithoutResolver(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"Dockerfile": "FROM scratch"})

	_, err := NewBuilder(nil).Plan(manifest.Image{
		ID:        "x",
		Files:     []manifest.File{{Source: filepath.Join(root, "Dockerfile")}},
		Artifacts: []manifest.Artifact{{Coordinate: "g:a:1"}},
	})
	require.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestWriteFailsWhenSourceVanishes(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"Dockerfile": "FROM scratch", "gone.txt": "x"})

	b := NewBuilder(nil)
	plan, err := b.Plan(manifest.Image{ID: "x", Files: []manifest.File{
		{Source: filepath.Join(root, "Dockerfile")},
		{Source: filepath.Join(root, "gone.txt")},
	}})
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(root, "gone.txt")))

	var buf bytes.Buffer
	err = b.Write(&buf, plan)
	require.ErrorIs(t, err, ErrArchiveIO)
}

func TestCleanName(t *testing.T) {
	tests := map[string]string{
		"a/b":      "a/b",
		"/opt/x":   "opt/x",
		"a/../b":   "b",
		"./c":      "c",
		"dir/sub/": "dir/sub",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanName(in), in)
	}
}
