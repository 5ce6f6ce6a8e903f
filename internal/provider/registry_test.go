package provider

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryHasBuiltins(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{Containerd, Local, Remote}, r.Names())
}

func TestRegistryOpenUnknown(t *testing.T) {
	_, err := NewRegistry().Open("podman", Config{})
	require.ErrorIs(t, err, ErrUnknownProvider)
	assert.Contains(t, err.Error(), "podman")
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	fake := &fakeProvider{}

	require.NoError(t, r.Register("fake", func(Config) (Provider, error) { return fake, nil }))

	p, err := r.Open("fake", Config{})
	require.NoError(t, err)
	assert.Same(t, fake, p)
}

func TestRegistryRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Remote, func(Config) (Provider, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrDuplicateProvider)
}

func TestRegistryConcurrentRegister(t *testing.T) {
	r := NewRegistry()
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Register(name, func(Config) (Provider, error) { return &fakeProvider{}, nil })
		}()
	}
	wg.Wait()

	assert.Len(t, r.Names(), len(names)+3)
}

func TestOpenRemoteDefaults(t *testing.T) {
	p, err := NewRegistry().Open(Remote, Config{})
	require.NoError(t, err)
	assert.Equal(t, "tcp://localhost:2375", p.(*Docker).client.Host())
}

func TestOpenLocal(t *testing.T) {
	p, err := NewRegistry().Open(Local, Config{})
	require.NoError(t, err)
	assert.Equal(t, "unix://"+DefaultSocket, p.(*Docker).client.Host())

	p, err = NewRegistry().Open(Local, Config{Host: "10.0.0.5"})
	require.NoError(t, err)
	assert.Equal(t, "tcp://10.0.0.5:4243", p.(*Docker).client.Host())
}

func TestOpenRemoteInvalidPort(t *testing.T) {
	_, err := NewRegistry().Open(Remote, Config{Port: 70000})
	assert.Error(t, err)
}
