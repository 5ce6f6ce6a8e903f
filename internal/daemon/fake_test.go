package daemon

import (
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// API version the fake reports on /_ping.
const fakeAPIVersion = "1.43"

var versionPrefix = regexp.MustCompile(`^/v[0-9.]+`)

// A recorded request.
type call struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// Scripted daemon. Each route pops its next response; the last one repeats.
type fakeDaemon struct {
	mu     sync.Mutex
	calls  []call
	routes map[string][]reply
}

type reply struct {
	status int
	body   string
}

func newFakeDaemon(t *testing.T) (*fakeDaemon, *Client) {
	t.Helper()
	f := &fakeDaemon{routes: map[string][]reply{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := NewWithHost("tcp://" + strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return f, c
}

func (f *fakeDaemon) on(method, path string, replies ...reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = replies
}

func (f *fakeDaemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/_ping" {
		w.Header().Set("API-Version", fakeAPIVersion)
		w.WriteHeader(http.StatusOK)
		return
	}

	body, _ := io.ReadAll(r.Body)
	path := versionPrefix.ReplaceAllString(r.URL.Path, "")

	f.mu.Lock()
	f.calls = append(f.calls, call{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	key := r.Method + " " + path
	replies := f.routes[key]
	var rep reply
	switch len(replies) {
	case 0:
		rep = reply{status: http.StatusNotFound, body: `{"message":"no route ` + key + `"}`}
	case 1:
		rep = replies[0]
	default:
		rep = replies[0]
		f.routes[key] = replies[1:]
	}
	f.mu.Unlock()

	if strings.HasPrefix(rep.body, "{") || strings.HasPrefix(rep.body, "[") {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

// Returns the recorded calls matching method and path.
func (f *fakeDaemon) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (f *fakeDaemon) last(method, path string) call {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Method == method && f.calls[i].Path == path {
			return f.calls[i]
		}
	}
	return call{}
}

func stream(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}
