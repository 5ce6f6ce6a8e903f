// Package runtime runs pipeline containers on a local containerd daemon.
//
// A [Runtime] connects to containerd and provides image and container
// operations for hosts that have no Docker Engine. Images are looked up by
// their normalized name; an image containerd does not have is pulled for the
// host platform, unpacked into the snapshotter, and the lookup retried once.
//
// Each [Container] wraps a containerd container and its task. The task's
// output is written to a log file that [Container.Logs] copies out. A
// container's filesystem changes can be committed as a new image layer with
// [Container.Commit], which writes a new manifest and config and records an
// image under the requested name without touching the source image. When
// the container is no longer needed it should be destroyed to release its
// snapshot and task resources.
//
// Containers share the host network namespace, so exposed ports are reachable
// on the host at the same number.
//
// Example usage:
//
//	rt, err := runtime.New(runtime.Options{
//	    Address:   "/run/containerd/containerd.sock",
//	    Namespace: "hoist",
//	    LogDir:    paths.ContainerLogs(),
//	})
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	ctr, err := rt.StartContainer(ctx, runtime.StartOptions{ID: "db-1", Image: "postgres:16"})
//	if err != nil {
//	    return err
//	}
//	defer ctr.Destroy(ctx)
//
//	name, err := ctr.Commit(ctx, "snapshots/db:seeded", runtime.CommitChange{Author: "ci"})
//	if err != nil {
//	    return err
//	}
package runtime
