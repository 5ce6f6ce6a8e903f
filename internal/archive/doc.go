// Package archive assembles image build contexts.
//
// A build context is a single tar stream containing the Dockerfile, the local
// files and directories listed by an image build spec, and any repository
// artifacts the spec references. The Dockerfile is always the first entry and
// sits at the archive root. Local directories are mirrored under their own
// name, files land under their destination path or base name, and artifacts
// are resolved through a [Resolver] and placed the same way.
//
// Building happens in two steps. [Builder.Plan] resolves and stats every
// source up front, so a missing file or unknown artifact fails the build
// before any byte is produced or any daemon is contacted. [Builder.Open] then
// streams the planned entries through a pipe that can be handed to the
// daemon client as a request body.
//
// Example usage:
//
//	b := archive.NewBuilder(archive.NewLocalRepository(""))
//	plan, err := b.Plan(spec)
//	if err != nil {
//	    return err
//	}
//	body := b.Open(plan)
//	defer body.Close()
package archive
