// Package keys layers explicit key-assignment tracking and administrative
// migrations on top of a hashing ring. Migrations deliberately diverge from
// ring-derived placement until the next rebalance.
package keys
