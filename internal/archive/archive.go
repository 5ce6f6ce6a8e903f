package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cruciblehq/hoist/internal/manifest"
)

// Assembles build contexts for image build specs.
type Builder struct {
	resolver Resolver // Resolves artifact coordinates to local files.
}

// A single file scheduled for the archive.
type Entry struct {
	Source string      // Path on the local filesystem.
	Name   string      // Slash-separated path inside the archive.
	Info   fs.FileInfo // Result of the planning stat.
}

// Ordered, fully resolved contents of a build context.
type Plan struct {
	Entries []Entry
}

// Returns the archive names in write order.
func (p *Plan) Names() []string {
	names := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		names[i] = e.Name
	}
	return names
}

// Creates a builder. A nil resolver rejects every artifact.
func NewBuilder(resolver Resolver) *Builder {
	return &Builder{resolver: resolver}
}

// Resolves every source of the spec into an ordered plan.
//
// The Dockerfile comes first, followed by the local files in declaration
// order and then the artifacts. Directories are expanded recursively. A spec
// without a Dockerfile wraps [manifest.ErrInvalidImage]; a missing or
// unreadable path wraps [ErrArchiveIO]; an unresolvable artifact wraps
// [ErrArtifactNotFound].
func (b *Builder) Plan(spec manifest.Image) (*Plan, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	plan := &Plan{}
	dockerfile := -1
	for i, f := range spec.Files {
		if f.ArchiveName() == manifest.Dockerfile {
			dockerfile = i
			break
		}
	}

	if err := plan.addSource(spec.Files[dockerfile].Source, manifest.Dockerfile); err != nil {
		return nil, err
	}

	for i, f := range spec.Files {
		if i == dockerfile {
			continue
		}
		if err := plan.addSource(f.Source, f.ArchiveName()); err != nil {
			return nil, err
		}
	}

	for _, a := range spec.Artifacts {
		resolved, err := b.resolve(a.Coordinate)
		if err != nil {
			return nil, err
		}
		name := filepath.Base(resolved)
		if a.Dest != "" {
			name = a.Dest
		}
		if err := plan.addSource(resolved, name); err != nil {
			return nil, err
		}
	}

	slog.Debug("planned build context", "image", spec.Key(), "entries", len(plan.Entries))
	return plan, nil
}

// Resolves a coordinate through the configured resolver.
func (b *Builder) resolve(coordinate string) (string, error) {
	if b.resolver == nil {
		return "", fmt.Errorf("%w: %s: no resolver configured", ErrArtifactNotFound, coordinate)
	}
	return b.resolver.Resolve(coordinate)
}

// Adds a file, or every file under a directory, under the given name.
func (p *Plan) addSource(source, name string) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveIO, err)
	}

	name = cleanName(name)
	if !info.IsDir() {
		if err := checkReadable(source); err != nil {
			return err
		}
		p.Entries = append(p.Entries, Entry{Source: source, Name: name, Info: info})
		return nil
	}

	return filepath.WalkDir(source, func(hostPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %w", ErrArchiveIO, err)
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(source, hostPath)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrArchiveIO, err)
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrArchiveIO, err)
		}
		if info.Mode().IsRegular() {
			if err := checkReadable(hostPath); err != nil {
				return err
			}
		}

		p.Entries = append(p.Entries, Entry{
			Source: hostPath,
			Name:   path.Join(name, filepath.ToSlash(rel)),
			Info:   info,
		})
		return nil
	})
}

// Verifies a file can be opened for reading.
func checkReadable(hostPath string) error {
	f, err := os.Open(hostPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveIO, err)
	}
	return f.Close()
}

// Normalizes an archive name to a relative, slash-separated path.
func cleanName(name string) string {
	name = path.Clean(filepath.ToSlash(name))
	return strings.TrimLeft(name, "/")
}

// Writes the planned entries as a tar stream.
func (b *Builder) Write(w io.Writer, plan *Plan) error {
	tw := tar.NewWriter(w)
	for _, e := range plan.Entries {
		if err := writeEntry(tw, e); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveIO, err)
	}
	return nil
}

// Streams the planned entries through a pipe.
//
// Write errors surface on the reader side. Closing the reader early stops the
// writer.
func (b *Builder) Open(plan *Plan) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(b.Write(pw, plan))
	}()
	return pr
}

// Writes a single file or symlink entry.
//
// The source is opened before the header is written, so an entry that
// became unreadable after planning contributes no bytes.
func writeEntry(tw *tar.Writer, e Entry) error {
	var link string
	var f *os.File

	switch {
	case e.Info.Mode()&fs.ModeSymlink != 0:
		target, err := os.Readlink(e.Source)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrArchiveIO, err)
		}
		link = target
	case e.Info.Mode().IsRegular():
		opened, err := os.Open(e.Source)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrArchiveIO, err)
		}
		defer opened.Close()
		f = opened
	default:
		slog.Debug("skipping special file", "path", e.Source, "mode", e.Info.Mode())
		return nil
	}

	header, err := tar.FileInfoHeader(e.Info, link)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveIO, err)
	}
	header.Name = e.Name
	header.Uid, header.Gid = 0, 0
	header.Uname, header.Gname = "", ""

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveIO, err)
	}

	if f != nil {
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrArchiveIO, e.Source, err)
		}
	}
	return nil
}
