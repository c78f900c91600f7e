// Package imaging recompresses processed JPEGs to tame file size.
//
// Recompression runs after metadata verification and before the final
// rename. The image is decoded, scaled so its long edge fits the
// configured bound, and re-encoded at the configured quality; the
// original's tags are copied onto the result before it replaces the
// original. The step is best-effort: the pipeline tolerates its
// failure and keeps the original bytes.
package imaging
