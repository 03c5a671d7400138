// Package aggregates implements the bake and recipe aggregate contracts.
//
// Each write method composes the bake store and table repos inside one
// transaction from a TxRunner, maps failures onto the aggregate error codes,
// and reports the outcome through Hooks.
package aggregates
