package api //nolint:revive

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mediactl/mediactl/internal/auth"
	"github.com/mediactl/mediactl/internal/backend"
	"github.com/mediactl/mediactl/internal/conf"
	"github.com/mediactl/mediactl/internal/defs"
	"github.com/mediactl/mediactl/internal/mediaserver"
	"github.com/mediactl/mediactl/internal/registry"
	"github.com/mediactl/mediactl/internal/test"
)

const testAddress = "127.0.0.1:9888"

func httpRequest(t *testing.T, hc *http.Client, method string, ur string, in any, out any) int {
	buf := func() io.Reader {
		if in == nil {
			return nil
		}

		byts, err := json.Marshal(in)
		require.NoError(t, err)

		return bytes.NewBuffer(byts)
	}()

	req, err := http.NewRequest(method, ur, buf)
	require.NoError(t, err)

	res, err := hc.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	if out != nil {
		err = json.NewDecoder(res.Body).Decode(out)
		require.NoError(t, err)
	}

	return res.StatusCode
}

func newTestAPI(t *testing.T, users []conf.AuthInternalUser) *API {
	f := &backend.Factory{Parent: test.NilLogger}
	f.Initialize()

	r := &registry.Registry{
		TTL:           time.Minute,
		SweepInterval: time.Hour,
		Parent:        test.NilLogger,
	}
	r.Initialize()
	t.Cleanup(r.Close)

	if users == nil {
		users = []conf.AuthInternalUser{{
			User:        "any",
			Permissions: []conf.AuthInternalUserPermission{{Action: conf.AuthActionAPI}},
		}}
	}

	a := &API{
		Started:      time.Now(),
		Address:      testAddress,
		AllowOrigins: []string{"*"},
		ReadTimeout:  conf.Duration(10 * time.Second),
		WriteTimeout: conf.Duration(10 * time.Second),
		MaxBodySize:  1024,
		AuthManager: &auth.Manager{
			Method:        conf.AuthMethodInternal,
			InternalUsers: users,
		},
		Handler: &mediaserver.Handler{
			Version:  "v0.0.0-test",
			Registry: r,
			Factory:  f,
			Parent:   test.NilLogger,
		},
		Registry: r,
		Parent:   test.NilLogger,
	}
	err := a.Initialize()
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return a
}

func TestInfo(t *testing.T) {
	newTestAPI(t, nil)

	tr := &http.Transport{}
	defer tr.CloseIdleConnections()
	hc := &http.Client{Transport: tr}

	var out defs.APIInfo
	status := httpRequest(t, hc, http.MethodGet, "http://"+testAddress+"/v1/info", nil, &out)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "v0.0.0-test", out.Version)
}

func TestObjects(t *testing.T) {
	newTestAPI(t, nil)

	tr := &http.Transport{}
	defer tr.CloseIdleConnections()
	hc := &http.Client{Transport: tr}

	u := func(path string) string {
		return "http://" + testAddress + "/v1" + path
	}

	var pipeline defs.APIHandleRes
	status := httpRequest(t, hc, http.MethodPost, u("/pipelines/create"), &defs.APICreatePipelineReq{}, &pipeline)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, pipeline.Handle.Token)

	var a, b defs.APIHandleRes
	status = httpRequest(t, hc, http.MethodPost, u("/elements/create"), &defs.APICreateObjectReq{
		Pipeline: pipeline.Handle,
		Type:     "source",
	}, &a)
	require.Equal(t, http.StatusOK, status)

	status = httpRequest(t, hc, http.MethodPost, u("/elements/create"), &defs.APICreateObjectReq{
		Pipeline: pipeline.Handle,
		Type:     "sink",
	}, &b)
	require.Equal(t, http.StatusOK, status)

	var srcs, sinks defs.APIHandleList
	status = httpRequest(t, hc, http.MethodPost, u("/elements/srcs"), &defs.APIPadsReq{
		Element:   a.Handle,
		MediaType: "VIDEO",
	}, &srcs)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, srcs.Items, 1)

	status = httpRequest(t, hc, http.MethodPost, u("/elements/sinks"), &defs.APIPadsReq{
		Element: b.Handle,
	}, &sinks)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, sinks.Items, 2)

	var ok defs.APIOK
	status = httpRequest(t, hc, http.MethodPost, u("/pads/connect"), &defs.APIConnectReq{
		Src:  srcs.Items[0],
		Sink: sinks.Items[0],
	}, &ok)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", ok.Status)

	var connected defs.APIHandleList
	status = httpRequest(t, hc, http.MethodPost, u("/pads/connectedsinks"), &defs.APIObjectReq{
		Object: srcs.Items[0],
	}, &connected)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []defs.APIHandle{sinks.Items[0]}, connected.Items)

	var parent defs.APIHandleRes
	status = httpRequest(t, hc, http.MethodPost, u("/objects/parent"), &defs.APIObjectReq{
		Object: a.Handle,
	}, &parent)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, pipeline.Handle, parent.Handle)

	var cmd defs.APICommandRes
	status = httpRequest(t, hc, http.MethodPost, u("/objects/command"), &defs.APICommandReq{
		Object: a.Handle,
		Name:   "getType",
	}, &cmd)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "source", cmd.Value)

	var list defs.APIObjectList
	status = httpRequest(t, hc, http.MethodGet, u("/objects/list?itemsPerPage=2"), nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 7, list.ItemCount)
	require.Equal(t, 4, list.PageCount)
	require.Len(t, list.Items, 2)
	require.Nil(t, list.Items[0].Parent)
	require.Equal(t, "pipeline", list.Items[0].Kind)

	status = httpRequest(t, hc, http.MethodPost, u("/objects/release"), &defs.APIObjectReq{
		Object: a.Handle,
	}, &ok)
	require.Equal(t, http.StatusOK, status)

	var apiErr defs.APIError
	status = httpRequest(t, hc, http.MethodPost, u("/pads/connectedsrc"), &defs.APIObjectReq{
		Object: sinks.Items[0],
	}, &apiErr)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NotFound", apiErr.Code)
}

func TestErrors(t *testing.T) {
	newTestAPI(t, nil)

	tr := &http.Transport{}
	defer tr.CloseIdleConnections()
	hc := &http.Client{Transport: tr}

	u := func(path string) string {
		return "http://" + testAddress + "/v1" + path
	}

	var pipeline defs.APIHandleRes
	status := httpRequest(t, hc, http.MethodPost, u("/pipelines/create"), &defs.APICreatePipelineReq{}, &pipeline)
	require.Equal(t, http.StatusOK, status)

	var mixer defs.APIHandleRes
	status = httpRequest(t, hc, http.MethodPost, u("/mixers/create"), &defs.APICreateObjectReq{
		Pipeline: pipeline.Handle,
		Type:     "composite",
	}, &mixer)
	require.Equal(t, http.StatusOK, status)

	for _, ca := range []struct {
		name   string
		path   string
		in     any
		status int
		code   string
	}{
		{
			"release unknown",
			"/objects/release",
			&defs.APIObjectReq{Object: defs.APIHandle{ID: 999, Token: "x"}},
			http.StatusNotFound,
			"NotFound",
		},
		{
			"type mismatch",
			"/elements/create",
			&defs.APICreateObjectReq{Pipeline: mixer.Handle, Type: "source"},
			http.StatusBadRequest,
			"TypeMismatch",
		},
		{
			"unsupported type",
			"/elements/create",
			&defs.APICreateObjectReq{Pipeline: pipeline.Handle, Type: "hologram"},
			http.StatusBadRequest,
			"UnsupportedType",
		},
		{
			"endpoint with params",
			"/mixerendpoints/create",
			&defs.APICreateEndPointReq{Mixer: mixer.Handle, Params: map[string]string{"a": "b"}},
			http.StatusBadRequest,
			"UnsupportedOperation",
		},
		{
			"error subscription",
			"/errors/subscribe",
			&defs.APISubscribeReq{Object: mixer.Handle, Address: "127.0.0.1", Port: 8080},
			http.StatusBadRequest,
			"UnsupportedOperation",
		},
		{
			"unknown command",
			"/objects/command",
			&defs.APICommandReq{Object: mixer.Handle, Name: "explode"},
			http.StatusBadRequest,
			"UnsupportedCommand",
		},
		{
			"unknown field",
			"/objects/keepalive",
			map[string]any{"objekt": 1},
			http.StatusBadRequest,
			"",
		},
		{
			"body too large",
			"/pipelines/create",
			&defs.APICreatePipelineReq{Params: map[string]string{"big": strings.Repeat("a", 2048)}},
			http.StatusRequestEntityTooLarge,
			"",
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			var out defs.APIError
			status := httpRequest(t, hc, http.MethodPost, u(ca.path), ca.in, &out)
			require.Equal(t, ca.status, status)
			require.Equal(t, "error", out.Status)
			require.Equal(t, ca.code, out.Code)
		})
	}
}

func TestAuthAskCredentials(t *testing.T) {
	newTestAPI(t, []conf.AuthInternalUser{{
		User:        "admin",
		Pass:        "secret",
		Permissions: []conf.AuthInternalUserPermission{{Action: conf.AuthActionAPI}},
	}})

	tr := &http.Transport{}
	defer tr.CloseIdleConnections()
	hc := &http.Client{Transport: tr}

	res, err := hc.Get("http://" + testAddress + "/v1/info")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, `Basic realm="mediactl"`, res.Header.Get("WWW-Authenticate"))

	req, err := http.NewRequest(http.MethodGet, "http://"+testAddress+"/v1/info", nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "secret")

	res2, err := hc.Do(req)
	require.NoError(t, err)
	defer res2.Body.Close()

	require.Equal(t, http.StatusOK, res2.StatusCode)
}

func TestPreflightRequest(t *testing.T) {
	newTestAPI(t, nil)

	tr := &http.Transport{}
	defer tr.CloseIdleConnections()
	hc := &http.Client{Transport: tr}

	req, err := http.NewRequest(http.MethodOptions, "http://"+testAddress+"/v1/pads/connect", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	res, err := hc.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.Equal(t, "OPTIONS, GET, POST", res.Header.Get("Access-Control-Allow-Methods"))
	require.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}
