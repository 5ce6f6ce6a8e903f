package cli

import (
	"context"
	"fmt"

	"github.com/cruciblehq/hoist/internal"
	"github.com/cruciblehq/hoist/internal/provider"
)

// Represents the 'hoist version' command.
type VersionCmd struct{}

// Executes the version command.
func (c *VersionCmd) Run(ctx context.Context) error {
	fmt.Println(internal.VersionString())
	return nil
}

// Represents the 'hoist providers' command.
type ProvidersCmd struct{}

// Executes the providers command. The default provider is marked.
func (c *ProvidersCmd) Run(ctx context.Context) error {
	for _, name := range provider.NewRegistry().Names() {
		if name == provider.Default {
			fmt.Println(name, "(default)")
			continue
		}
		fmt.Println(name)
	}
	return nil
}
