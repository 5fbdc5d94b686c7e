// Package http provides the HTTP transport layer: workbook upload,
// report download, job status, and health endpoints.
//
// Request/response encoding uses go-chi/render; failures are rendered
// as RFC 7807 problem details through the internal errors package.
package http
