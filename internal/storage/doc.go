// Package storage keeps the per-category disc capacities the planner solves against.
package storage
