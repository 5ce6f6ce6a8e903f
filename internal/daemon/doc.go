// Package daemon drives a Docker Engine through the subset of its API that a
// build pipeline needs.
//
// The [Client] wraps the engine SDK client. It creates, starts, inspects,
// kills and removes containers, streams their logs, and pulls, builds,
// commits, tags, pushes and removes images, over TCP or a Unix domain socket.
//
// Container creation follows a pull-and-retry protocol. [Client.CreateContainer]
// reports its outcome as a [CreateResult]; when the daemon does not have the
// image, [Client.CreateWithPull] pulls it and retries the create exactly once.
// A second miss is fatal, so a broken image reference can never loop.
//
// Failed requests and errors reported inside progress streams wrap
// [ErrDaemon] and keep the engine error in the chain. Missing images and
// containers are additionally classified as [ErrImageNotFound] and
// [ErrContainerNotFound], both of which match containerd's errdefs.ErrNotFound.
//
// Example usage:
//
//	c, err := daemon.New(daemon.Config{Host: "localhost", Port: 2375})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	id, err := c.CreateWithPull(ctx, "", &container.Config{Image: "redis:7"}, nil)
//	if err != nil {
//	    return err
//	}
//	if err := c.StartContainer(ctx, id); err != nil {
//	    return err
//	}
package daemon
