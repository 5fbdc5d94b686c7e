// Package app assembles and runs the StudyCoach web service.
//
// NewApplication performs all dependency wiring; Run starts the HTTP
// server and job queue and blocks until an interrupt, then shuts both
// down gracefully.
package app
