// Package common contains shared constants and sentinel errors used across
// the relay components.
package common

// RequestIDHeaderName carries the per-request correlation id on inbound and
// outbound HTTP messages.
const RequestIDHeaderName = "X-Request-ID"

// PDFMimeType is the only document type accepted by the relay.
const PDFMimeType = "application/pdf"
