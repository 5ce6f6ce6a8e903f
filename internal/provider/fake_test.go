package provider

import (
	"context"
	"io"

	"github.com/cruciblehq/hoist/internal/manifest"
	"github.com/cruciblehq/hoist/internal/state"
)

// Stands in for a backend in registry tests.
type fakeProvider struct{}

func (*fakeProvider) StartContainer(context.Context, manifest.Container) (Started, error) {
	return Started{}, nil
}
func (*fakeProvider) NetworkInfo(context.Context, string) (state.NetworkInfo, error) {
	return state.NetworkInfo{}, nil
}
func (*fakeProvider) ExposedPorts(context.Context, string) ([]state.PortMapping, error) {
	return nil, nil
}
func (*fakeProvider) StopContainer(context.Context, string) error   { return nil }
func (*fakeProvider) DeleteContainer(context.Context, string) error { return nil }
func (*fakeProvider) Logs(context.Context, string, io.Writer, io.Writer) error {
	return nil
}
func (*fakeProvider) BuildImage(context.Context, manifest.Image) (string, error) { return "", nil }
func (*fakeProvider) CommitContainer(context.Context, string, manifest.Commit) (string, error) {
	return "", nil
}
func (*fakeProvider) TagImage(context.Context, string, string) error  { return nil }
func (*fakeProvider) PushImage(context.Context, string, string) error { return nil }
func (*fakeProvider) RemoveImage(context.Context, string) error       { return nil }
func (*fakeProvider) SetCredentials(manifest.Credentials)             {}
func (*fakeProvider) Close() error                                    { return nil }
