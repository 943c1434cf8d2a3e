package hooks

import (
	"github.com/mediactl/mediactl/internal/externalcmd"
	"github.com/mediactl/mediactl/internal/logger"
	"github.com/mediactl/mediactl/internal/registry"
)

// OnReleaseParams are the parameters of OnRelease.
type OnReleaseParams struct {
	Logger          logger.Writer
	ExternalCmdPool *externalcmd.Pool
	RunOnRelease    string
	Info            *registry.ObjectInfo
	Reason          registry.RemoveReason
}

// OnRelease is the OnRelease hook.
func OnRelease(params OnReleaseParams) {
	if params.RunOnRelease == "" || params.Info.Kind.IsPad() {
		return
	}

	params.Logger.Log(logger.Info, "runOnRelease command launched for %s %d (%s)",
		params.Info.Kind, params.Info.ID, params.Reason)

	env := objectEnv(params.Info)
	env["MCTL_RELEASE_REASON"] = params.Reason.String()

	externalcmd.NewCmd(
		params.ExternalCmdPool,
		params.RunOnRelease,
		false,
		env,
		func(err error) {
			if err != nil {
				params.Logger.Log(logger.Info, "runOnRelease command exited: %v", err)
			}
		})
}
