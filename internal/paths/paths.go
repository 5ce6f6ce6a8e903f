package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	appName = "hoist"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files. Run state may carry registry names
	// and container ids, so it is kept private to the owner.
	DefaultFileMode os.FileMode = 0600

	// Default pipeline file looked up in the working directory.
	DefaultPipelineFile = "hoist.yaml"
)

// Directory holding the state files of in-progress pipeline runs.
//
//	Linux:   $XDG_STATE_HOME/hoist/runs or ~/.local/state/hoist/runs
//	macOS:   ~/Library/Application Support/hoist/runs
func Runs() string {
	return filepath.Join(xdg.StateHome, appName, "runs")
}

// Path to the state file of a single run.
//
// The run id is reduced to its base name so an id cannot escape the runs
// directory.
func RunState(runID string) string {
	name := filepath.Base(filepath.Clean("/" + strings.TrimSpace(runID)))
	return filepath.Join(Runs(), name+".json")
}

// Directory receiving the output of containers run by the containerd
// provider, one file per container.
//
//	Linux:   $XDG_STATE_HOME/hoist/logs or ~/.local/state/hoist/logs
//	macOS:   ~/Library/Application Support/hoist/logs
func ContainerLogs() string {
	return filepath.Join(xdg.StateHome, appName, "logs")
}

// Default local artifact repository used to resolve build artifacts.
//
//	All platforms: ~/.m2/repository
func ArtifactRepository() string {
	return filepath.Join(xdg.Home, ".m2", "repository")
}
