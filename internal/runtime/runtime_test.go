package runtime

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPlatform(t *testing.T) {
	p := defaultPlatform()
	if !strings.HasPrefix(p, "linux/") {
		t.Fatalf("defaultPlatform = %q, want linux/<arch>", p)
	}
	parts := strings.Split(p, "/")
	if len(parts) != 2 || parts[1] == "" {
		t.Fatalf("defaultPlatform = %q, want linux/<arch>", p)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"redis", "docker.io/library/redis:latest"},
		{"redis:7", "docker.io/library/redis:7"},
		{"team/app:1", "docker.io/team/app:1"},
		{"registry.local:5000/app", "registry.local:5000/app:latest"},
		{"docker.io/library/redis:7", "docker.io/library/redis:7"},
	}

	for _, tt := range tests {
		got, err := normalize(tt.ref)
		if err != nil {
			t.Fatalf("normalize(%q): %v", tt.ref, err)
		}
		if got != tt.want {
			t.Fatalf("normalize(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestNormalizeInvalid(t *testing.T) {
	if _, err := normalize("Not A Ref"); !errors.Is(err, ErrRuntime) {
		t.Fatalf("err = %v, want ErrRuntime", err)
	}
}

func TestBindMounts(t *testing.T) {
	mounts, err := bindMounts([]string{"/data:/var/lib/data", "/etc/app:/etc/app:ro"})
	if err != nil {
		t.Fatal(err)
	}
	if len(mounts) != 2 {
		t.Fatalf("len(mounts) = %d, want 2", len(mounts))
	}

	m := mounts[0]
	if m.Type != "bind" || m.Source != "/data" || m.Destination != "/var/lib/data" {
		t.Fatalf("mounts[0] = %+v", m)
	}
	if strings.Join(m.Options, ",") != "rbind,rw" {
		t.Fatalf("mounts[0].Options = %v, want [rbind rw]", m.Options)
	}
	if strings.Join(mounts[1].Options, ",") != "rbind,ro" {
		t.Fatalf("mounts[1].Options = %v, want [rbind ro]", mounts[1].Options)
	}
}

func TestBindMountsInvalid(t *testing.T) {
	for _, b := range []string{"/only", ":/dst", "/src:", "/a:/b:rx", "rel:/dst", "/a:/b:ro:x"} {
		if _, err := bindMounts([]string{b}); !errors.Is(err, ErrInvalidBind) {
			t.Fatalf("bindMounts(%q) err = %v, want ErrInvalidBind", b, err)
		}
	}
}

func TestPortKeysSorted(t *testing.T) {
	got := portKeys(map[string]struct{}{"8080/tcp": {}, "53/udp": {}, "443/tcp": {}})
	want := "443/tcp,53/udp,8080/tcp"
	if strings.Join(got, ",") != want {
		t.Fatalf("portKeys = %v, want %s", got, want)
	}
	if len(portKeys(nil)) != 0 {
		t.Fatal("portKeys(nil) not empty")
	}
}

func TestLogPath(t *testing.T) {
	if got := logPath("/logs", "db-1"); got != filepath.Join("/logs", "db-1.log") {
		t.Fatalf("logPath = %q", got)
	}
}
