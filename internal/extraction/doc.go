// Package extraction turns staged documents into plain text. Each supported
// format has a strategy (pdfcpu content streams for PDF, the ZIP and XML
// readers for DOCX, direct reads for text, tesseract for images); when more
// than one applies, every applicable strategy runs and the candidate with the
// best quality score wins. Ties break on a fixed method order so a re-run of
// the same file selects the same candidate.
package extraction
