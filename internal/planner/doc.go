// Package planner turns the pending part of the media catalog into burn groups.
// It snapshots the catalog, solves each category against its configured
// capacity, and marks committed groups as backed up.
package planner
