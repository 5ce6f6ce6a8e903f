package daemon

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateContainerOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		outcome CreateOutcome
	}{
		{"created", http.StatusCreated, `{"Id":"c1","Warnings":null}`, Created},
		{"image missing", http.StatusNotFound, `{"message":"No such image: redis:7"}`, ImageMissing},
		{"conflict", http.StatusConflict, `{"message":"name in use"}`, Failed},
		{"server error", http.StatusInternalServerError, "boom", Failed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, c := newFakeDaemon(t)
			f.on(http.MethodPost, "/containers/create", reply{tt.status, tt.body})

			res := c.CreateContainer(context.Background(), "", &container.Config{Image: "redis:7"}, nil)
			assert.Equal(t, tt.outcome, res.Outcome)
			if tt.outcome == Created {
				assert.Equal(t, "c1", res.ID)
				assert.NoError(t, res.Err)
			} else {
				assert.Error(t, res.Err)
			}
		})
	}
}

func TestCreateContainerSendsNameAndConfig(t *testing.T) {
	f, c := newFakeDaemon(t)
	f.on(http.MethodPost, "/containers/create", reply{http.StatusCreated, `{"Id":"c1"}`})

	cfg := &container.Config{
		Image:        "redis:7",
		Env:          []string{"A=1"},
		ExposedPorts: nat.PortSet{"6379/tcp": {}},
	}
	hc := &container.HostConfig{
		PortBindings: nat.PortMap{"6379/tcp": {{HostIP: "127.0.0.1", HostPort: "6380"}}},
	}
	res := c.CreateContainer(context.Background(), "cache", cfg, hc)
	require.Equal(t, Created, res.Outcome)

	got := f.last(http.MethodPost, "/containers/create")
	assert.Equal(t, "name=cache", got.Query)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.Body), &sent))
	assert.Equal(t, "redis:7", sent["Image"])
	sentHC := sent["HostConfig"].(map[string]any)
	binding := sentHC["PortBindings"].(map[string]any)["6379/tcp"].([]any)[0].(map[string]any)
	assert.Equal(t, "127.0.0.1", binding["HostIp"])
	assert.Equal(t, "6380", binding["HostPort"])
}

func TestCreateWithPullRetriesOnce(t *testing.T) {
	f, c := newFakeDaemon(t)
	f.on(http.MethodPost, "/containers/create",
		reply{http.StatusNotFound, `{"message":"No such image"}`},
		reply{http.StatusCreated, `{"Id":"c1"}`},
	)
	f.on(http.MethodPost, "/images/create", reply{http.StatusOK, stream(`{"status":"Pulling"}`, `{"status":"Done"}`)})

	id, err := c.CreateWithPull(context.Background(), "", &container.Config{Image: "redis:7"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "c1", id)
	assert.Equal(t, 2, f.count(http.MethodPost, "/containers/create"))
	assert.Equal(t, 1, f.count(http.MethodPost, "/images/create"))
	assert.Equal(t, "fromImage=redis&tag=7", f.last(http.MethodPost, "/images/create").Query)
}

func TestCreateWithPullSecondMissIsFatal(t *testing.T) {
	f, c := newFakeDaemon(t)
	f.on(http.MethodPost, "/containers/create", reply{http.StatusNotFound, `{"message":"No such image"}`})
	f.on(http.MethodPost, "/images/create", reply{http.StatusOK, stream(`{"status":"Done"}`)})

	_, err := c.CreateWithPull(context.Background(), "", &container.Config{Image: "redis:7"}, nil)
	require.ErrorIs(t, err, ErrImageNotFound)
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
	assert.Equal(t, 2, f.count(http.MethodPost, "/containers/create"))
	assert.Equal(t, 1, f.count(http.MethodPost, "/images/create"))
}

func TestCreateWithPullNoPullWhenPresent(t *testing.T) {
	f, c := newFakeDaemon(t)
	f.on(http.MethodPost, "/containers/create", reply{http.StatusCreated, `{"Id":"c1"}`})

	id, err := c.CreateWithPull(context.Background(), "", &container.Config{Image: "redis:7"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "c1", id)
	assert.Equal(t, 0, f.count(http.MethodPost, "/images/create"))
}

func TestCreateWithPullFailureWrapsDaemonError(t *testing.T) {
	f, c := newFakeDaemon(t)
	f.on(http.MethodPost, "/containers/create", reply{http.StatusInternalServerError, `{"message":"disk full"}`})

	_, err := c.CreateWithPull(context.Background(), "", &container.Config{Image: "redis:7"}, nil)
	require.ErrorIs(t, err, ErrDaemon)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, f.count(http.MethodPost, "/images/create"))
}

func TestCreateWithPullPullFailure(t *testing.T) {
	f, c := newFakeDaemon(t)
	f.on(http.MethodPost, "/containers/create", reply{http.StatusNotFound, `{"message":"No such image"}`})
	f.on(http.MethodPost, "/images/create", reply{http.StatusOK, stream(`{"status":"Pulling"}`, `{"errorDetail":{"message":"denied"},"error":"denied"}`)})

	_, err := c.CreateWithPull(context.Background(), "", &container.Config{Image: "private/app:1"}, nil)
	require.ErrorIs(t, err, ErrDaemon)
	var je *jsonmessage.JSONError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, "denied", je.Message)
	assert.Equal(t, 1, f.count(http.MethodPost, "/containers/create"))
}

func TestStartAndInspect(t *testing.T) {
	f, c := newFakeDaemon(t)
	f.on(http.MethodPost, "/containers/c1/start", reply{http.StatusNoContent, ""})
	f.on(http.MethodGet, "/containers/c1/json", reply{http.StatusOK, `{
		"Id": "c1",
		"Name": "/cache",
		"Config": {"Hostname": "cache", "Tty": false},
		"NetworkSettings": {
			"Bridge": "docker0",
			"Gateway": "172.17.0.1",
			"IPAddress": "172.17.0.5",
			"Ports": {"6379/tcp": [{"HostIp": "0.0.0.0", "HostPort": "49153"}]}
		}
	}`})

	ctx := context.Background()
	require.NoError(t, c.StartContainer(ctx, "c1"))
	assert.Equal(t, 1, f.count(http.MethodPost, "/containers/c1/start"))

	info, err := c.InspectContainer(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "cache", info.Config.Hostname)
	ip, gw := Address(info.NetworkSettings)
	assert.Equal(t, "172.17.0.5", ip)
	assert.Equal(t, "172.17.0.1", gw)
	assert.Equal(t, "49153", info.NetworkSettings.Ports["6379/tcp"][0].HostPort)
}

func TestInspectMissingContainer(t *testing.T) {
	_, c := newFakeDaemon(t)

	_, err := c.InspectContainer(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrContainerNotFound)
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
	assert.ErrorIs(t, err, ErrDaemon)
}

func TestNetworkAddressFallsBackToNetworks(t *testing.T) {
	ns := &types.NetworkSettings{Networks: map[string]*network.EndpointSettings{
		"zeta":  {IPAddress: "10.0.1.2", Gateway: "10.0.1.1"},
		"alpha": {IPAddress: "10.0.0.2", Gateway: "10.0.0.1"},
		"empty": {},
	}}
	ip, gw := Address(ns)
	assert.Equal(t, "10.0.0.2", ip)
	assert.Equal(t, "10.0.0.1", gw)

	ip, _ = Address(&types.NetworkSettings{})
	assert.Empty(t, ip)
	ip, _ = Address(nil)
	assert.Empty(t, ip)
}

func TestKillContainer(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"killed", http.StatusNoContent, nil},
		{"not running", http.StatusConflict, nil},
		{"missing", http.StatusNotFound, ErrContainerNotFound},
		{"failure", http.StatusInternalServerError, ErrDaemon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, c := newFakeDaemon(t)
			f.on(http.MethodPost, "/containers/c1/kill", reply{tt.status, `{"message":"x"}`})

			err := c.KillContainer(context.Background(), "c1")
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRemoveContainer(t *testing.T) {
	f, c := newFakeDaemon(t)
	f.on(http.MethodDelete, "/containers/c1", reply{http.StatusNoContent, ""})

	require.NoError(t, c.RemoveContainer(context.Background(), "c1"))
	assert.Equal(t, "v=1", f.last(http.MethodDelete, "/containers/c1").Query)

	err := c.RemoveContainer(context.Background(), "c2")
	assert.ErrorIs(t, err, ErrContainerNotFound)
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
}

// Builds one multiplexed log frame.
func frame(stream byte, payload string) []byte {
	hdr := make([]byte, 8)
	hdr[0] = stream
	binary.BigEndian.PutUint32(hdr[4:], uint32(len(payload)))
	return append(hdr, payload...)
}

func TestContainerLogsDemultiplexes(t *testing.T) {
	f, c := newFakeDaemon(t)
	body := string(append(frame(1, "out\n"), frame(2, "err\n")...))
	f.on(http.MethodGet, "/containers/c1/logs", reply{http.StatusOK, body})

	var stdout, stderr bytes.Buffer
	require.NoError(t, c.ContainerLogs(context.Background(), "c1", false, &stdout, &stderr))
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
	assert.Equal(t, "stderr=1&stdout=1", f.last(http.MethodGet, "/containers/c1/logs").Query)
}

func TestContainerLogsTTY(t *testing.T) {
	f, c := newFakeDaemon(t)
	f.on(http.MethodGet, "/containers/c1/logs", reply{http.StatusOK, "raw output\n"})

	var stdout, stderr bytes.Buffer
	require.NoError(t, c.ContainerLogs(context.Background(), "c1", true, &stdout, &stderr))
	assert.Equal(t, "raw output\n", stdout.String())
	assert.Empty(t, stderr.String())
}
