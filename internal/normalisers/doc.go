// Package normalisers provides implementations of the Normaliser interface
// for the upload formats paperchat accepts. Each normaliser knows how to
// extract text from a specific MIME type: PDF (via pdftotext), markdown,
// and plain text. PDF extraction yields one document per page so answers
// can cite page numbers; the other formats have no page structure and
// produce a single page-1 document.
//
// Normalisers are registered with the Registry at startup; uploads are
// dispatched by MIME type, falling back to the file extension.
package normalisers
