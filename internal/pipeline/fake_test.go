package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cruciblehq/hoist/internal/manifest"
	"github.com/cruciblehq/hoist/internal/provider"
	"github.com/cruciblehq/hoist/internal/state"
)

var errFake = errors.New("fake failure")

// In-memory provider recording every call.
type fakeProvider struct {
	mu    sync.Mutex
	calls []string

	failStart   map[string]bool // Image references whose start fails.
	failInspect map[string]bool // Image references that start but cannot be inspected.
	failBuild   map[string]bool // Image keys whose build fails.
	failTag     map[string]bool // Tags that cannot be applied.
	failPush    map[string]bool // Images that cannot be pushed.
	failStop    map[string]bool // Container ids that cannot be stopped.

	started int
	logs    string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		failStart: map[string]bool{},
		failInspect: map[string]bool{},
		failBuild: map[string]bool{},
		failTag:   map[string]bool{},
		failPush:  map[string]bool{},
		failStop:  map[string]bool{},
	}
}

func (f *fakeProvider) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// Returns the recorded calls starting with prefix.
func (f *fakeProvider) callsWith(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeProvider) StartContainer(_ context.Context, spec manifest.Container) (provider.Started, error) {
	f.record("start %s links=%v", spec.Image, spec.Links)
	if f.failStart[spec.Image] {
		return provider.Started{}, errFake
	}
	f.started++
	id := fmt.Sprintf("c%d", f.started)
	if f.failInspect[spec.Image] {
		return provider.Started{ID: id}, errFake
	}
	name := spec.Name
	if name == "" {
		name = "name-" + id
	}
	return provider.Started{ID: id, Name: name, Hostname: spec.Hostname}, nil
}

func (f *fakeProvider) NetworkInfo(_ context.Context, id string) (state.NetworkInfo, error) {
	return state.NetworkInfo{IPAddress: "10.0.0." + strings.TrimPrefix(id, "c"), Gateway: "10.0.0.254", Bridge: "br0"}, nil
}

func (f *fakeProvider) ExposedPorts(context.Context, string) ([]state.PortMapping, error) {
	return []state.PortMapping{{ContainerPort: "80/tcp", HostIP: "0.0.0.0", HostPort: "8080"}}, nil
}

func (f *fakeProvider) StopContainer(_ context.Context, id string) error {
	f.record("stop %s", id)
	if f.failStop[id] {
		return errFake
	}
	return nil
}

func (f *fakeProvider) DeleteContainer(_ context.Context, id string) error {
	f.record("delete %s", id)
	return nil
}

func (f *fakeProvider) Logs(_ context.Context, id string, stdout, _ io.Writer) error {
	f.record("logs %s", id)
	_, err := io.WriteString(stdout, f.logs)
	return err
}

func (f *fakeProvider) BuildImage(_ context.Context, spec manifest.Image) (string, error) {
	f.record("build %s", spec.Key())
	if f.failBuild[spec.Key()] {
		return "", errFake
	}
	return "sha256:" + spec.Key(), nil
}

func (f *fakeProvider) CommitContainer(_ context.Context, id string, spec manifest.Commit) (string, error) {
	f.record("commit %s", id)
	return "sha256:commit-" + id, nil
}

func (f *fakeProvider) TagImage(_ context.Context, image, target string) error {
	f.record("tag %s %s", image, target)
	if f.failTag[target] {
		return errFake
	}
	return nil
}

func (f *fakeProvider) PushImage(_ context.Context, image, registry string) error {
	f.record("push %s %s", image, registry)
	if f.failPush[image] {
		return errFake
	}
	return nil
}

func (f *fakeProvider) RemoveImage(_ context.Context, image string) error {
	f.record("remove %s", image)
	return nil
}

func (f *fakeProvider) SetCredentials(manifest.Credentials) {}

func (f *fakeProvider) Close() error { return nil }

var _ provider.Provider = (*fakeProvider)(nil)
