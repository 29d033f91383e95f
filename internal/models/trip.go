package models

import (
	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

type Trip struct {
	ID                   string `json:"id"`
	RouteID              string `json:"routeId"`
	ServiceID            string `json:"serviceId"`
	Headsign             string `json:"headsign"`
	DirectionID          *int64 `json:"directionId"`
	ShapeID              string `json:"shapeId"`
	WheelchairAccessible bool   `json:"wheelchairAccessible"`
	BikesAllowed         bool   `json:"bikesAllowed"`
}

func NewTrip(trip gtfsdb.Trip) Trip {
	t := Trip{
		ID:                   trip.ID,
		RouteID:              trip.RouteID,
		ServiceID:            trip.ServiceID,
		Headsign:             utils.NullStringOrEmpty(trip.Headsign),
		ShapeID:              utils.NullStringOrEmpty(trip.ShapeID),
		WheelchairAccessible: utils.IsAccessible(trip.WheelchairAccessible),
		BikesAllowed:         utils.IsAccessible(trip.BikesAllowed),
	}
	if trip.DirectionID.Valid {
		direction := trip.DirectionID.Int64
		t.DirectionID = &direction
	}
	return t
}

func NewTrips(trips []gtfsdb.Trip) []Trip {
	out := make([]Trip, len(trips))
	for i, trip := range trips {
		out[i] = NewTrip(trip)
	}
	return out
}

// TripStop is one call of a trip. Lat and Lng are zero when the stop is unknown.
type TripStop struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	ArrivalTime   string  `json:"arrivalTime"`
	DepartureTime string  `json:"departureTime"`
	Sequence      int64   `json:"sequence"`
}

// DirectTripResult is one bookable row of a stop-to-stop search. Frequency,
// Price, Capacity, CurrentPassengers and Rating are estimates.
type DirectTripResult struct {
	TripID               string     `json:"tripId"`
	RouteID              string     `json:"routeId"`
	BusNumber            string     `json:"busNumber"`
	RouteName            string     `json:"routeName"`
	From                 string     `json:"from"`
	To                   string     `json:"to"`
	Stops                []TripStop `json:"stops"`
	NextDeparture        string     `json:"nextDeparture"`
	EstimatedArrival     string     `json:"estimatedArrival"`
	Duration             int        `json:"duration"`
	DurationText         string     `json:"durationText"`
	WheelchairAccessible bool       `json:"wheelchairAccessible"`
	BikesAllowed         bool       `json:"bikesAllowed"`
	Frequency            string     `json:"frequency"`
	Price                int        `json:"price"`
	Capacity             int        `json:"capacity"`
	CurrentPassengers    int        `json:"currentPassengers"`
	Rating               float64    `json:"rating"`
}

// TripSearchEntry is the result of a stop-to-stop search. An empty Trips list
// is a valid answer; Message explains why when known.
type TripSearchEntry struct {
	From         Stop               `json:"from"`
	To           Stop               `json:"to"`
	Date         string             `json:"date"`
	Time         string             `json:"time"`
	TotalResults int                `json:"totalResults"`
	NoService    bool               `json:"noService"`
	Message      string             `json:"message,omitempty"`
	Trips        []DirectTripResult `json:"trips"`
}
