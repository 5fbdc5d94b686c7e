// Package files manages the on-disk artifacts the report service
// produces and consumes: uploaded workbooks waiting for a batch and
// the generated documents a finished batch leaves behind.
//
// All operations go through a Manager bound to the application's
// directory layout, so callers never assemble paths by hand.
package files
