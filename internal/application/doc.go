// Package application wires the catalog, capacity storage, solver, planner,
// handlers and HTTP server together from a resolved config.Config, keeping
// the main package focused on CLI parsing and shutdown orchestration.
package application
