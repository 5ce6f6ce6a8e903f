package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/joho/godotenv"

	"github.com/cruciblehq/hoist/internal/state"
)

// Writes the network settings of started containers as a dotenv file.
//
// For a container with user id "db" the file holds DB_CONTAINER_ID, DB_NAME,
// DB_IP, DB_GATEWAY and one DB_PORT_<port>_<proto> entry per published port,
// set to "host:port". Later registrations of the same user id win.
func WriteExports(path string, containers []state.StartedContainer) error {
	env := make(map[string]string)
	for _, c := range containers {
		prefix := envName(c.UserID)
		env[prefix+"_CONTAINER_ID"] = c.ContainerID
		if c.Name != "" {
			env[prefix+"_NAME"] = c.Name
		}
		if c.Network.IPAddress != "" {
			env[prefix+"_IP"] = c.Network.IPAddress
		}
		if c.Network.Gateway != "" {
			env[prefix+"_GATEWAY"] = c.Network.Gateway
		}
		for _, p := range c.Ports {
			if p.HostPort == "" {
				continue
			}
			port, proto, _ := strings.Cut(p.ContainerPort, "/")
			if proto == "" {
				proto = "tcp"
			}
			host := p.HostIP
			if host == "" {
				host = "0.0.0.0"
			}
			env[fmt.Sprintf("%s_PORT_%s_%s", prefix, port, strings.ToUpper(proto))] = host + ":" + p.HostPort
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return godotenv.Write(env, path)
}

// Converts a user id to an environment variable prefix.
func envName(id string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(id) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" || unicode.IsDigit(rune(s[0])) {
		s = "_" + s
	}
	return s
}
