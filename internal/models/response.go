package models

import (
	"net/http"

	"github.com/Niyant4280/bus-niyojak/internal/clock"
)

// ResponseModel Base response structure that can be reused
type ResponseModel struct {
	Code        int         `json:"code"`
	CurrentTime int64       `json:"currentTime"`
	Data        interface{} `json:"data,omitempty"`
	Text        string      `json:"text"`
	Version     int         `json:"version"`
}

// ReferencesModel carries the routes and stops that list or entry items point at by ID.
type ReferencesModel struct {
	Routes []Route `json:"routes"`
	Stops  []Stop  `json:"stops"`
}

func NewEmptyReferences() ReferencesModel {
	return ReferencesModel{Routes: []Route{}, Stops: []Stop{}}
}

// NewOKResponse wraps data in a 200 envelope stamped with the clock's time.
func NewOKResponse(data interface{}, c clock.Clock) ResponseModel {
	return NewResponse(http.StatusOK, data, "OK", c)
}

func NewListResponse(list interface{}, references ReferencesModel, c clock.Clock) ResponseModel {
	data := map[string]interface{}{
		"limitExceeded": false,
		"list":          list,
		"references":    references,
	}
	return NewOKResponse(data, c)
}

// NewPagedListResponse reports the total match count alongside one page of results.
func NewPagedListResponse(list interface{}, total int64, limitExceeded bool, c clock.Clock) ResponseModel {
	data := map[string]interface{}{
		"limitExceeded": limitExceeded,
		"list":          list,
		"total":         total,
	}
	return NewOKResponse(data, c)
}

func NewEntryResponse(entry interface{}, references ReferencesModel, c clock.Clock) ResponseModel {
	data := map[string]interface{}{
		"entry":      entry,
		"references": references,
	}
	return NewOKResponse(data, c)
}

// NewResponse creates a standard response using the provided clock.
func NewResponse(code int, data interface{}, text string, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        code,
		CurrentTime: ResponseCurrentTime(c),
		Data:        data,
		Text:        text,
		Version:     2,
	}
}

// ResponseCurrentTime returns the current time from the provided clock as Unix milliseconds.
func ResponseCurrentTime(c clock.Clock) int64 {
	return c.NowUnixMilli()
}
