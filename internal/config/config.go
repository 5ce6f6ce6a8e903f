package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/cruciblehq/hoist/internal/manifest"
	"github.com/cruciblehq/hoist/internal/provider"
)

// Environment variable names.
const (
	EnvProvider            = "HOIST_PROVIDER"
	EnvRunID               = "HOIST_RUN_ID"
	EnvDockerHost          = "HOIST_DOCKER_HOST"
	EnvDockerPort          = "HOIST_DOCKER_PORT"
	EnvDockerSocket        = "HOIST_DOCKER_SOCKET"
	EnvDockerTLS           = "HOIST_DOCKER_TLS"
	EnvContainerdAddress   = "HOIST_CONTAINERD_ADDRESS"
	EnvContainerdNamespace = "HOIST_CONTAINERD_NAMESPACE"
	EnvRegistryUsername    = "HOIST_REGISTRY_USERNAME"
	EnvRegistryPassword    = "HOIST_REGISTRY_PASSWORD"
	EnvRegistryEmail       = "HOIST_REGISTRY_EMAIL"
	EnvRegistryServer      = "HOIST_REGISTRY_SERVER"
)

// Values given on the command line. Zero values are unset.
type Flags struct {
	Provider string
	Host     string
	Port     int
	RunID    string
}

// Resolved settings of a run.
type Settings struct {
	Provider    string                // Provider name.
	RunID       string                // Run id; empty when none was given.
	Daemon      provider.Config       // Provider connection settings.
	Credentials *manifest.Credentials // Registry credentials; nil when none.
}

// Looks up an environment variable.
type Lookup func(key string) (string, bool)

// Loads variables from dotenv files into the process environment.
//
// Missing files are skipped. Variables already set are not overridden.
func LoadDotenv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("%w: %s: %w", ErrConfig, f, err)
		}
	}
	return nil
}

// Resolves settings from the process environment.
func Resolve(flags Flags, p *manifest.Pipeline) (Settings, error) {
	return ResolveWith(flags, p, os.LookupEnv)
}

// Resolves settings using env for environment lookups.
//
// A nil pipeline is treated as empty.
func ResolveWith(flags Flags, p *manifest.Pipeline, env Lookup) (Settings, error) {
	if p == nil {
		p = &manifest.Pipeline{}
	}
	get := func(key string) string {
		v, _ := env(key)
		return v
	}

	s := Settings{
		Provider: first(flags.Provider, p.Provider, get(EnvProvider), provider.Default),
		RunID:    first(flags.RunID, get(EnvRunID)),
	}

	port, err := portValue(flags.Port, p.Daemon.Port, get(EnvDockerPort))
	if err != nil {
		return Settings{}, err
	}

	tls, err := boolValue(get(EnvDockerTLS))
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %w", ErrConfig, EnvDockerTLS, err)
	}

	s.Daemon = provider.Config{
		Host:                first(flags.Host, p.Daemon.Host, get(EnvDockerHost)),
		Port:                port,
		Socket:              first(p.Daemon.Socket, get(EnvDockerSocket)),
		TLS:                 tls,
		ContainerdAddress:   first(p.Daemon.ContainerdAddress, get(EnvContainerdAddress)),
		ContainerdNamespace: first(p.Daemon.ContainerdNamespace, get(EnvContainerdNamespace)),
		Repository:          p.Repository,
	}

	s.Credentials = credentials(p.Credentials, get)
	return s, nil
}

// Returns the pipeline's credentials, or those from the environment.
func credentials(declared *manifest.Credentials, get func(string) string) *manifest.Credentials {
	if declared != nil && declared.Username != "" {
		c := *declared
		return &c
	}
	c := manifest.Credentials{
		Username: get(EnvRegistryUsername),
		Password: get(EnvRegistryPassword),
		Email:    get(EnvRegistryEmail),
		Server:   get(EnvRegistryServer),
	}
	if c.Username == "" {
		return nil
	}
	return &c
}

// Returns the first port that is set. The environment value must parse.
func portValue(flag, file int, env string) (int, error) {
	if flag != 0 {
		return flag, nil
	}
	if file != 0 {
		return file, nil
	}
	if env == "" {
		return 0, nil
	}
	port, err := strconv.Atoi(env)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%w: %s=%q is not a port", ErrConfig, EnvDockerPort, env)
	}
	return port, nil
}

func boolValue(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// Returns the first non-empty value.
func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
