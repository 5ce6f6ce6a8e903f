// Parses flags, configures logging and runs pipeline phases.
//
// Global flags:
//
//	-q, --quiet          Suppress informational output.
//	-v, --verbose        Enable verbose output.
//	-d, --debug          Enable debug output.
//	-f, --file           Pipeline file (default hoist.yaml).
//	    --run            Run id shared by phase invocations.
//	    --provider       Provider name (remote, local, containerd).
//	    --host           Daemon host.
//	    --port           Daemon port.
//	    --metrics-file   Write phase metrics to this file on exit.
//
// Each phase has its own subcommand, so a run can be driven one phase per
// process; the run context is persisted between invocations under the run id.
// The run subcommand executes every phase in one process and removes the
// persisted state once verification passes. Flags override values from the
// pipeline file, which override the environment.
package cli
