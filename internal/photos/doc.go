// Package photos is the boundary to the destination photo library.
//
// The library itself has no stable programmatic surface, so the import
// step runs through a configured bridge command instead: ScriptImporter
// invokes it with the file path and the album paths the file should
// land in, and reads success from the exit code. NopImporter satisfies
// the same interface for dry runs and for setups without a bridge.
package photos
