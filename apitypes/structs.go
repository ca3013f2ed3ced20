// Package apitypes holds the JSON shapes of the VIIPER management API that
// padbridge talks to.
package apitypes

import "fmt"

// ApiError is an RFC 7807 (problem+json) error returned by the server.
type ApiError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e ApiError) Error() string {
	switch {
	case e.Status == 0 && e.Title == "":
		return "unknown error"
	case e.Status == 0:
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

func ErrBadRequest(detail string) ApiError {
	return ApiError{Status: 400, Title: "Bad Request", Detail: detail}
}

func ErrUnauthorized(detail string) ApiError {
	return ApiError{Status: 401, Title: "Unauthorized", Detail: detail}
}

func ErrNotFound(detail string) ApiError {
	return ApiError{Status: 404, Title: "Not Found", Detail: detail}
}

func ErrConflict(detail string) ApiError {
	return ApiError{Status: 409, Title: "Conflict", Detail: detail}
}

type PingResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
}

type BusListResponse struct {
	Buses []uint32 `json:"buses"`
}

type BusCreateResponse struct {
	BusID uint32 `json:"busId"`
}

type BusRemoveResponse struct {
	BusID uint32 `json:"busId"`
}

type Device struct {
	BusID uint32 `json:"busId"`
	DevId string `json:"devId"`
	Vid   string `json:"vid"`
	Pid   string `json:"pid"`
	Type  string `json:"type"`
}

type DevicesListResponse struct {
	Devices []Device `json:"devices"`
}

type DeviceRemoveResponse struct {
	BusID uint32 `json:"busId"`
	DevId string `json:"devId"`
}

// DeviceCreateRequest is the payload of bus/{id}/add. Vendor and product
// default to the device type's own IDs when omitted.
type DeviceCreateRequest struct {
	Type      *string `json:"type"`
	IdVendor  *uint16 `json:"idVendor,omitempty"`
	IdProduct *uint16 `json:"idProduct,omitempty"`
}
