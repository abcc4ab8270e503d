// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/wirebus/pkg/cli/cmds/bus"
	_ "github.com/robotalks/wirebus/pkg/cli/cmds/session"
)
