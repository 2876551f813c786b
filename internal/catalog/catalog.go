// Package catalog holds the fleet reference data: which cars exist, what
// class each belongs to and the order in which they are offered.
package catalog

import (
	"fmt"
	"sort"

	"fleet-rental-backend/internal/domain"
)

// Catalog is an immutable index of the fleet. Build it once at startup and
// share it; all methods are safe for concurrent use.
type Catalog struct {
	byID    map[int32]domain.Car
	byClass map[domain.CarClass][]int32
	cars    []domain.Car
}

// New indexes cars. Ids must be unique and every class must be known.
func New(cars []domain.Car) (*Catalog, error) {
	c := &Catalog{
		byID:    make(map[int32]domain.Car, len(cars)),
		byClass: make(map[domain.CarClass][]int32),
	}
	for _, car := range cars {
		if !car.Class.Valid() {
			return nil, fmt.Errorf("car %d: %w: car class %q", car.ID, domain.ErrNotFound, string(car.Class))
		}
		if _, dup := c.byID[car.ID]; dup {
			return nil, fmt.Errorf("duplicate car id %d", car.ID)
		}
		c.byID[car.ID] = car
		c.byClass[car.Class] = append(c.byClass[car.Class], car.ID)
	}
	for _, ids := range c.byClass {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	c.cars = make([]domain.Car, 0, len(cars))
	for _, class := range domain.AllCarClasses() {
		for _, id := range c.byClass[class] {
			c.cars = append(c.cars, c.byID[id])
		}
	}
	return c, nil
}

// CarIDsInClass returns the ids of a class in ascending order. Lower ids win
// ties when scanning for a free car.
func (c *Catalog) CarIDsInClass(class domain.CarClass) []int32 {
	ids := c.byClass[class]
	out := make([]int32, len(ids))
	copy(out, ids)
	return out
}

// Details returns the car with the given id.
func (c *Catalog) Details(carID int32) (domain.Car, error) {
	car, ok := c.byID[carID]
	if !ok {
		return domain.Car{}, fmt.Errorf("%w: car %d", domain.ErrNotFound, carID)
	}
	return car, nil
}

// ClassesFrom returns the upgrade search path starting at class.
func (c *Catalog) ClassesFrom(class domain.CarClass) ([]domain.CarClass, error) {
	return domain.ClassesFrom(class)
}

// Cars lists the whole fleet ordered by class rank, then id.
func (c *Catalog) Cars() []domain.Car {
	out := make([]domain.Car, len(c.cars))
	copy(out, c.cars)
	return out
}

// Size returns the number of cars in class.
func (c *Catalog) Size(class domain.CarClass) int {
	return len(c.byClass[class])
}
