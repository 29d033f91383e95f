package models

import (
	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

type Stop struct {
	ID                 string  `json:"id"`
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	Lat                float64 `json:"lat"`
	Lng                float64 `json:"lng"`
	LocationType       int     `json:"locationType"`
	WheelchairBoarding string  `json:"wheelchairBoarding"`
}

func NewStop(stop gtfsdb.Stop) Stop {
	return Stop{
		ID:                 stop.ID,
		Code:               utils.NullStringOrEmpty(stop.Code),
		Name:               utils.NullStringOrDefault(stop.Name, stop.ID),
		Description:        utils.NullStringOrEmpty(stop.Desc),
		Lat:                stop.Lat,
		Lng:                stop.Lon,
		LocationType:       int(utils.NullInt64OrDefault(stop.LocationType, 0)),
		WheelchairBoarding: utils.MapWheelchairBoarding(utils.NullWheelchairBoardingOrUnknown(stop.WheelchairBoarding)),
	}
}

func NewStops(stops []gtfsdb.Stop) []Stop {
	out := make([]Stop, len(stops))
	for i, stop := range stops {
		out[i] = NewStop(stop)
	}
	return out
}

// NearbyStop is a stop with its great-circle distance from the query point.
type NearbyStop struct {
	Stop
	DistanceMeters float64 `json:"distanceMeters"`
}
