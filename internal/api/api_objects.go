package api //nolint:revive

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediactl/mediactl/internal/defs"
	"github.com/mediactl/mediactl/internal/mediaobject"
	"github.com/mediactl/mediactl/internal/registry"
)

func handleOf(h defs.APIHandle) registry.Handle {
	return registry.Handle{ID: h.ID, Token: h.Token}
}

func apiHandleOf(h registry.Handle) defs.APIHandle {
	return defs.APIHandle{ID: h.ID, Token: h.Token}
}

func apiHandleListOf(hs []registry.Handle) *defs.APIHandleList {
	ret := &defs.APIHandleList{
		Items: make([]defs.APIHandle, len(hs)),
	}
	for i, h := range hs {
		ret.Items[i] = apiHandleOf(h)
	}
	return ret
}

func objectOf(info *registry.ObjectInfo) *defs.APIObject {
	o := &defs.APIObject{
		ID:          info.ID,
		Kind:        info.Kind.String(),
		Type:        info.Type,
		Created:     info.Created,
		LeaseExpiry: info.LeaseExpiry,
	}
	if info.Parent != 0 {
		parent := info.Parent
		o.Parent = &parent
	}
	return o
}

func (a *API) writeHandle(ctx *gin.Context, h registry.Handle, err error) {
	if err != nil {
		a.writeOpError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, &defs.APIHandleRes{Handle: apiHandleOf(h)})
}

func (a *API) writeHandleList(ctx *gin.Context, hs []registry.Handle, err error) {
	if err != nil {
		a.writeOpError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, apiHandleListOf(hs))
}

func (a *API) writeResult(ctx *gin.Context, err error) {
	if err != nil {
		a.writeOpError(ctx, err)
		return
	}

	a.writeOK(ctx)
}

func (a *API) onPipelinesCreate(ctx *gin.Context) {
	var req defs.APICreatePipelineReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	h, err := a.Handler.CreatePipeline(req.Params)
	a.writeHandle(ctx, h, err)
}

func (a *API) onElementsCreate(ctx *gin.Context) {
	var req defs.APICreateObjectReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	h, err := a.Handler.CreateElement(handleOf(req.Pipeline), req.Type, req.Params)
	a.writeHandle(ctx, h, err)
}

func (a *API) onMixersCreate(ctx *gin.Context) {
	var req defs.APICreateObjectReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	h, err := a.Handler.CreateMixer(handleOf(req.Pipeline), req.Type, req.Params)
	a.writeHandle(ctx, h, err)
}

func (a *API) onMixerEndPointsCreate(ctx *gin.Context) {
	var req defs.APICreateEndPointReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	var h registry.Handle
	var err error

	if req.Params != nil {
		h, err = a.Handler.CreateMixerEndPointWithParams(handleOf(req.Mixer), req.Params)
	} else {
		h, err = a.Handler.CreateMixerEndPoint(handleOf(req.Mixer))
	}

	a.writeHandle(ctx, h, err)
}

func (a *API) onObjectsKeepAlive(ctx *gin.Context) {
	var req defs.APIObjectReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	a.writeResult(ctx, a.Handler.KeepAlive(handleOf(req.Object)))
}

func (a *API) onObjectsRelease(ctx *gin.Context) {
	var req defs.APIObjectReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	a.writeResult(ctx, a.Handler.Release(handleOf(req.Object)))
}

func (a *API) onObjectsParent(ctx *gin.Context) {
	var req defs.APIObjectReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	h, err := a.Handler.GetParent(handleOf(req.Object))
	a.writeHandle(ctx, h, err)
}

func (a *API) onObjectsPipeline(ctx *gin.Context) {
	var req defs.APIObjectReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	h, err := a.Handler.GetPipelineOf(handleOf(req.Object))
	a.writeHandle(ctx, h, err)
}

func (a *API) onObjectsCommand(ctx *gin.Context) {
	var req defs.APICommandReq
	if !a.decodeBody(ctx, &req) {
		return
	}

	res, err := a.Handler.SendCommand(handleOf(req.Object), mediaobject.Command{
		Name:   req.Name,
		Params: req.Params,
	})
	if err != nil {
		a.writeOpError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, &defs.APICommandRes{
		Value:  res.Value,
		Values: res.Values,
	})
}
