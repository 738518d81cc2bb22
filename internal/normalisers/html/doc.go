// Package html provides a Normaliser implementation for HTML uploads.
// It extracts readable text from HTML, stripping tags, scripts and
// styles, and decoding entities so chunking sees clean prose.
package html
