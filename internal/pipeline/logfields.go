package pipeline

import "log/slog"

// Canonical log field names.
const (
	KeyRun       = "run"
	KeyPhase     = "phase"
	KeyID        = "id"
	KeyContainer = "container"
	KeyImage     = "image"
	KeyTag       = "tag"
	KeyRegistry  = "registry"
	KeyDuration  = "duration"
	KeyErrors    = "errors"
	KeyError     = "error"
)

func runAttr(id string) slog.Attr            { return slog.String(KeyRun, id) }
func phaseAttr(p Phase) slog.Attr            { return slog.String(KeyPhase, string(p)) }
func idAttr(id string) slog.Attr             { return slog.String(KeyID, id) }
func containerAttr(id string) slog.Attr      { return slog.String(KeyContainer, id) }
func imageAttr(ref string) slog.Attr         { return slog.String(KeyImage, ref) }
func tagAttr(tag string) slog.Attr           { return slog.String(KeyTag, tag) }
func registryAttr(registry string) slog.Attr { return slog.String(KeyRegistry, registry) }

func errAttr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
