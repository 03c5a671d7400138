// Package aggregates defines the bake and recipe aggregate contracts.
//
// Contracts describe semantic write boundaries: every method is one atomic
// transaction that either commits its whole effect or none of it.
package aggregates
