package domain

import (
	"fmt"
	"strings"
)

// CarClass is a ranked vehicle category. Reservations request a class, not a car.
type CarClass string

const (
	CarClassA CarClass = "A"
	CarClassB CarClass = "B"
	CarClassC CarClass = "C"
	CarClassD CarClass = "D"
	CarClassE CarClass = "E"
	CarClassF CarClass = "F"
	CarClassS CarClass = "S"
)

// carClasses is ordered by rank, lowest first. The order is the upgrade direction.
var carClasses = []CarClass{CarClassA, CarClassB, CarClassC, CarClassD, CarClassE, CarClassF, CarClassS}

// AllCarClasses returns every class in rank order.
func AllCarClasses() []CarClass {
	out := make([]CarClass, len(carClasses))
	copy(out, carClasses)
	return out
}

// Rank returns the position of the class in the hierarchy, or -1 if unknown.
func (c CarClass) Rank() int {
	for i, cc := range carClasses {
		if cc == c {
			return i
		}
	}
	return -1
}

// Valid reports whether c is one of the known classes.
func (c CarClass) Valid() bool {
	return c.Rank() >= 0
}

func (c CarClass) String() string {
	return string(c)
}

// ParseCarClass normalizes user input (trimmed, case-insensitive) into a CarClass.
func ParseCarClass(raw string) (CarClass, error) {
	normalized := CarClass(strings.ToUpper(strings.TrimSpace(raw)))
	if normalized == "" {
		return "", fmt.Errorf("%w: car class is required, allowed values: %s", ErrNotFound, allowedClasses())
	}
	if !normalized.Valid() {
		return "", fmt.Errorf("%w: invalid car class %q, allowed values: %s", ErrNotFound, raw, allowedClasses())
	}
	return normalized, nil
}

// ClassesFrom returns the upgrade path for c: c itself followed by every
// strictly higher class in rank order.
func ClassesFrom(c CarClass) ([]CarClass, error) {
	rank := c.Rank()
	if rank < 0 {
		return nil, fmt.Errorf("%w: car class %q", ErrNotFound, string(c))
	}
	out := make([]CarClass, len(carClasses)-rank)
	copy(out, carClasses[rank:])
	return out, nil
}

func allowedClasses() string {
	names := make([]string, len(carClasses))
	for i, c := range carClasses {
		names[i] = string(c)
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Car is a physical vehicle in the fleet. Cars are reference data and never
// change at runtime.
type Car struct {
	ID    int32    `json:"car_id" yaml:"id"`
	Name  string   `json:"car_name" yaml:"name"`
	Class CarClass `json:"car_class" yaml:"class"`
	Plate string   `json:"license_plate" yaml:"plate"`
}

func (c Car) String() string {
	return fmt.Sprintf("Car(carId=%d, carName=%q, carClass=%s, licensePlate=%q)", c.ID, c.Name, c.Class, c.Plate)
}
