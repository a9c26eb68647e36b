// Package catalog stores the media library that burn groups are planned from.
//
// Two implementations share the Catalog interface: MemoryCatalog for tests and
// ephemeral servers, and SQLiteCatalog for a persistent library. Items that are
// not backed up yet are the burn candidates.
package catalog
