// Package hooks contains hook implementations.
package hooks

import (
	"strconv"

	"github.com/mediactl/mediactl/internal/externalcmd"
	"github.com/mediactl/mediactl/internal/registry"
)

func objectEnv(info *registry.ObjectInfo) externalcmd.Environment {
	env := externalcmd.Environment{
		"MCTL_OBJECT_ID":   strconv.FormatUint(info.ID, 10),
		"MCTL_OBJECT_KIND": info.Kind.String(),
		"MCTL_OBJECT_TYPE": info.Type,
		"MCTL_PARENT_ID":   "",
	}
	if info.Parent != 0 {
		env["MCTL_PARENT_ID"] = strconv.FormatUint(info.Parent, 10)
	}
	return env
}
