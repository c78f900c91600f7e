// Package transfer moves processed files to their destinations.
//
// A file qualifies once its name carries the completion marker, it has
// sat unchanged for a minimum age, and an advisory-lock probe shows no
// other process writing it. Each source directory maps to one route;
// routes can file assets into YYYY/MM subfolders by capture date and
// can hand the moved file to the photo-library importer together with
// its resolved album paths.
//
// Gates that decline are not errors: the file simply waits for the
// next pass.
package transfer
