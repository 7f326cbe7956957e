// Package kernel provides core domain primitives shared across aggregates.
// It implements fundamental building blocks following Domain-Driven Design
// principles that are used throughout the domain model.
//
// The package includes:
//   - UUID: A value object for unique identifiers with validation and comparison
//   - GeoPoint: A value object for geographic coordinates with haversine distance
//   - Vehicle: The delivery vehicle type enum used for dispatch preferences
//
// These primitives enforce domain invariants and validation rules, ensuring
// that domain objects are always in a valid state. They are immutable and
// safe for concurrent use.
package kernel
