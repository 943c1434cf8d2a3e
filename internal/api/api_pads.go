package api //nolint:revive

import (
	"github.com/gin-gonic/gin"

	"github.com/mediactl/mediactl/internal/defs"
	"github.com/mediactl/mediactl/internal/registry"
)

func (a *API) onPadsConnect(ctx *gin.Context) {
	var req defs.APIConnectReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	a.writeResult(ctx, a.Handler.Connect(handleOf(req.Src), handleOf(req.Sink)))
}

func (a *API) onPadsDisconnect(ctx *gin.Context) {
	var req defs.APIConnectReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	a.writeResult(ctx, a.Handler.Disconnect(handleOf(req.Src), handleOf(req.Sink)))
}

func (a *API) onPadsConnectedSinks(ctx *gin.Context) {
	var req defs.APIObjectReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	hs, err := a.Handler.GetConnectedSinks(handleOf(req.Object))
	a.writeHandleList(ctx, hs, err)
}

func (a *API) onPadsConnectedSrc(ctx *gin.Context) {
	var req defs.APIObjectReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	h, err := a.Handler.GetConnectedSrc(handleOf(req.Object))
	a.writeHandle(ctx, h, err)
}

func (a *API) onPadsElement(ctx *gin.Context) {
	var req defs.APIObjectReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	h, err := a.Handler.GetMediaElement(handleOf(req.Object))
	a.writeHandle(ctx, h, err)
}

// a description takes precedence over a media type.
func (a *API) onElementsSrcs(ctx *gin.Context) {
	var req defs.APIPadsReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	element := handleOf(req.Element)

	var hs []registry.Handle
	var err error

	switch {
	case req.Description != "":
		hs, err = a.Handler.GetMediaSrcsByDescription(element, req.Description)

	case req.MediaType != "":
		hs, err = a.Handler.GetMediaSrcsByType(element, req.MediaType)

	default:
		hs, err = a.Handler.GetMediaSrcs(element)
	}

	a.writeHandleList(ctx, hs, err)
}

func (a *API) onElementsSinks(ctx *gin.Context) {
	var req defs.APIPadsReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	element := handleOf(req.Element)

	var hs []registry.Handle
	var err error

	switch {
	case req.Description != "":
		hs, err = a.Handler.GetMediaSinksByDescription(element, req.Description)

	case req.MediaType != "":
		hs, err = a.Handler.GetMediaSinksByType(element, req.MediaType)

	default:
		hs, err = a.Handler.GetMediaSinks(element)
	}

	a.writeHandleList(ctx, hs, err)
}
