package api //nolint:revive

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediactl/mediactl/internal/defs"
)

func (a *API) onEventsSubscribe(ctx *gin.Context) {
	var req defs.APISubscribeReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	token, err := a.Handler.Subscribe(handleOf(req.Object), req.EventType, req.Address, req.Port)
	if err != nil {
		a.writeOpError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, &defs.APISubscribeRes{Token: token})
}

func (a *API) onEventsUnsubscribe(ctx *gin.Context) {
	var req defs.APIUnsubscribeReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	a.writeResult(ctx, a.Handler.Unsubscribe(handleOf(req.Object), req.Token))
}

func (a *API) onErrorsSubscribe(ctx *gin.Context) {
	var req defs.APISubscribeReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	token, err := a.Handler.SubscribeError(handleOf(req.Object), req.Address, req.Port)
	if err != nil {
		a.writeOpError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, &defs.APISubscribeRes{Token: token})
}

func (a *API) onErrorsUnsubscribe(ctx *gin.Context) {
	var req defs.APIUnsubscribeReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	a.writeResult(ctx, a.Handler.UnsubscribeError(handleOf(req.Object), req.Token))
}
