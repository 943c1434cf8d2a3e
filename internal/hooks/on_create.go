package hooks

import (
	"github.com/mediactl/mediactl/internal/externalcmd"
	"github.com/mediactl/mediactl/internal/logger"
	"github.com/mediactl/mediactl/internal/registry"
)

// OnCreateParams are the parameters of OnCreate.
type OnCreateParams struct {
	Logger          logger.Writer
	ExternalCmdPool *externalcmd.Pool
	RunOnCreate     string
	Info            *registry.ObjectInfo
}

// OnCreate is the OnCreate hook.
func OnCreate(params OnCreateParams) {
	if params.RunOnCreate == "" || params.Info.Kind.IsPad() {
		return
	}

	params.Logger.Log(logger.Info, "runOnCreate command launched for %s %d",
		params.Info.Kind, params.Info.ID)

	externalcmd.NewCmd(
		params.ExternalCmdPool,
		params.RunOnCreate,
		false,
		objectEnv(params.Info),
		func(err error) {
			if err != nil {
				params.Logger.Log(logger.Info, "runOnCreate command exited: %v", err)
			}
		})
}
