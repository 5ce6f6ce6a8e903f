// Package provider abstracts the container backend a pipeline runs against.
//
// A [Provider] starts, stops and deletes containers, builds, commits, tags,
// pushes and removes images, and reports the network settings and published
// ports of the containers it started. Providers are created by name through
// a [Registry]:
//
//   - "remote" talks to a Docker Engine over TCP (default localhost:2375).
//   - "local" talks to the Docker Engine on this machine through
//     /var/run/docker.sock, or over TCP on port 4243 when a host is set.
//   - "containerd" runs containers on a local containerd daemon. It cannot
//     build images.
//
// The registry is an explicit value. [NewRegistry] returns one holding the
// built-in providers; further providers are added with [Registry.Register].
//
// Example usage:
//
//	reg := provider.NewRegistry()
//
//	p, err := reg.Open(provider.Remote, provider.Config{Host: "build-host"})
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	id, err := p.BuildImage(ctx, spec)
package provider
