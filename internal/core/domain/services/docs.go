// Package services provides domain services that orchestrate dispatch
// decisions across the order and agent aggregates.
//
// The package includes:
//   - Eligibility: selects which available agents may receive an offer for
//     a ready order
//   - OfferBoard: tracks open offers, declines and offer expiry in memory
//
// Domain services coordinate between aggregates, implementing business logic
// that does not naturally belong to a single aggregate root.
package services
