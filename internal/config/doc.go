// Package config resolves the settings a pipeline run needs from command
// line flags, the pipeline file, the environment, and built-in defaults.
//
// A value given on the command line wins over one declared in the pipeline
// file, which wins over the HOIST_* environment variables. Anything still
// unset is left at its zero value so the selected provider can apply its own
// default; the provider name itself defaults to "local".
//
// A .env file in the working directory is loaded into the environment before
// resolution. It never overrides variables the process already has.
//
// Recognized environment variables:
//
//	HOIST_PROVIDER               provider name
//	HOIST_RUN_ID                 run id shared by the phases of one run
//	HOIST_DOCKER_HOST            daemon TCP host
//	HOIST_DOCKER_PORT            daemon TCP port
//	HOIST_DOCKER_SOCKET          daemon Unix socket
//	HOIST_DOCKER_TLS             use https for TCP connections
//	HOIST_CONTAINERD_ADDRESS     containerd socket
//	HOIST_CONTAINERD_NAMESPACE   containerd namespace
//	HOIST_REGISTRY_USERNAME      registry user name
//	HOIST_REGISTRY_PASSWORD      registry password
//	HOIST_REGISTRY_EMAIL         registry e-mail
//	HOIST_REGISTRY_SERVER        registry server address
package config
