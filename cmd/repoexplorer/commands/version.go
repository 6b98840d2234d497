package commands

import (
	"fmt"

	"git.home.luguber.info/inful/repoexplorer/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run(g *Global, _ *CLI) error {
	_, err := fmt.Fprintf(out(g), "repoexplorer %s\n", version.String())
	return err
}
