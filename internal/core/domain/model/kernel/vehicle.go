package kernel

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Vehicle enumerates the transport kinds a delivery agent can ride.
// The zero value VehicleUnknown is invalid.
type Vehicle int

const (
	VehicleUnknown Vehicle = iota
	VehicleBicycle
	VehicleMotorbike
	VehicleCar
)

func getVehicleStrings() map[Vehicle]string {
	return map[Vehicle]string{
		VehicleUnknown:   "unknown",
		VehicleBicycle:   "bicycle",
		VehicleMotorbike: "motorbike",
		VehicleCar:       "car",
	}
}

func getValidVehicleStrings() map[string]Vehicle {
	return map[string]Vehicle{
		"bicycle":   VehicleBicycle,
		"motorbike": VehicleMotorbike,
		"car":       VehicleCar,
	}
}

// ParseVehicle converts a string into a Vehicle. The input must be one of
// "bicycle", "motorbike" or "car"; anything else yields a
// ValueIsInvalidError.
func ParseVehicle(s string) (Vehicle, error) {
	v, ok := getValidVehicleStrings()[s]
	if !ok {
		return VehicleUnknown, errs.NewValueIsInvalidError(fmt.Sprintf("vehicle: %s", s))
	}
	return v, nil
}

// String returns the lowercase name of the vehicle kind.
// It implements the fmt.Stringer interface.
func (v Vehicle) String() string {
	s, ok := getVehicleStrings()[v]
	if !ok {
		return "unknown"
	}
	return s
}

// Validate checks that the vehicle is one of the known kinds.
func (v Vehicle) Validate() error {
	if _, ok := getValidVehicleStrings()[v.String()]; !ok {
		return errs.NewValueIsInvalidError(fmt.Sprintf("vehicle: %d", int(v)))
	}
	return nil
}
