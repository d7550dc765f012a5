// Package domain models pet grooming price quotes and the nearby groomers
// that support them.
//
// # Request Model
//
// A quote is requested for a free-text location, a pet type and a pet size.
// Both enumerations are closed:
//
//	pet type: dog, cat, lizard, rabbit, bird, other, hamster, fish,
//	          amphibian, snake, tortoise
//	pet size: tiny, small, medium, large, x-large
//
// Locations are trimmed and must be 2 to 200 characters long.
//
// # Distances
//
// Distances between coordinates are great-circle distances on a sphere of
// radius 6371 km (haversine). Search radii are configured in miles and
// converted with 1 mi = 1.609344 km; candidate distances are reported in km.
//
// # Provenance
//
// Every GroomerCandidate carries a Source. "external" candidates came from a
// places provider; "fallback" candidates were synthesized around the request
// coordinate because no provider result was available. Fallback candidates
// are never presented as anything else.
//
// # Price Estimates
//
// A PriceEstimate has both bounds set with Min <= Max, or neither set. The
// confidence levels are ordered low < medium < high.
package domain
