// Package defs contains shared definitions.
package defs

import (
	"time"
)

// APIError is a generic error.
type APIError struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error"`
}

// APIOK is a generic success response.
type APIOK struct {
	Status string `json:"status"`
}

// APIInfo is a response to a info request.
type APIInfo struct {
	Version string    `json:"version"`
	Started time.Time `json:"started"`
}

// APIHandle is a remote reference to an object.
type APIHandle struct {
	ID    uint64 `json:"id"`
	Token string `json:"token"`
}

// APIHandleRes is a response carrying a single handle.
type APIHandleRes struct {
	Handle APIHandle `json:"handle"`
}

// APIHandleList is a response carrying a list of handles.
type APIHandleList struct {
	Items []APIHandle `json:"items"`
}

// APIObject is an object summary. Tokens are never disclosed.
type APIObject struct {
	ID          uint64    `json:"id"`
	Kind        string    `json:"kind"`
	Type        string    `json:"type"`
	Parent      *uint64   `json:"parent"`
	Created     time.Time `json:"created"`
	LeaseExpiry time.Time `json:"leaseExpiry"`
}

// APIObjectList is a list of objects.
type APIObjectList struct {
	ItemCount int          `json:"itemCount"`
	PageCount int          `json:"pageCount"`
	Items     []*APIObject `json:"items"`
}

// APICreatePipelineReq is a pipeline creation request.
type APICreatePipelineReq struct {
	Params map[string]string `json:"params"`
}

// APICreateObjectReq is a element or mixer creation request.
type APICreateObjectReq struct {
	Pipeline APIHandle         `json:"pipeline"`
	Type     string            `json:"type"`
	Params   map[string]string `json:"params"`
}

// APICreateEndPointReq is a mixer endpoint creation request.
type APICreateEndPointReq struct {
	Mixer  APIHandle         `json:"mixer"`
	Params map[string]string `json:"params"`
}

// APIConnectReq is a connection request.
type APIConnectReq struct {
	Src  APIHandle `json:"src"`
	Sink APIHandle `json:"sink"`
}

// APIObjectReq is a request that targets a single object.
type APIObjectReq struct {
	Object APIHandle `json:"object"`
}

// APIPadsReq is a request that lists the pads of an element.
type APIPadsReq struct {
	Element     APIHandle `json:"element"`
	MediaType   string    `json:"mediaType"`
	Description string    `json:"description"`
}

// APISubscribeReq is a subscription request.
type APISubscribeReq struct {
	Object    APIHandle `json:"object"`
	EventType string    `json:"eventType"`
	Address   string    `json:"address"`
	Port      int32     `json:"port"`
}

// APISubscribeRes is a subscription response.
type APISubscribeRes struct {
	Token string `json:"token"`
}

// APIUnsubscribeReq is a unsubscription request.
type APIUnsubscribeReq struct {
	Object APIHandle `json:"object"`
	Token  string    `json:"token"`
}

// APICommandReq is a command request.
type APICommandReq struct {
	Object APIHandle         `json:"object"`
	Name   string            `json:"name"`
	Params map[string]string `json:"params"`
}

// APICommandRes is a command response.
type APICommandRes struct {
	Value  string            `json:"value"`
	Values map[string]string `json:"values"`
}
