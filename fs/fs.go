// Package fs implements [parley.SceneProvider] by listing a workspace
// directory. The listing is what the assistant sees as its environment.
package fs

// DefaultPatterns lists the top level of the workspace.
var DefaultPatterns = []string{"*"}

// DefaultMaxEntries bounds the number of listed entries.
const DefaultMaxEntries = 200

// timeLayout formats modification times in the listing.
const timeLayout = "2006-01-02 15:04"
