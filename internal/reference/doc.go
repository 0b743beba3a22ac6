// Package reference resolves catalog records against an external nutrient
// composition provider.
//
// Lookup tries a brand-qualified search over branded products first, then the
// standard reference datasets, then an unfiltered search. The first strategy
// yielding a usable hit wins and its per-100 g panel is scaled to the serving
// mass. Searches are cached, rate limited, retried and bounded by a timeout.
package reference
