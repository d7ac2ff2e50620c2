// Package ocr shells out to tesseract for image-based documents. OCR is an
// optional extraction strategy: when the binary is missing the service
// reports itself unavailable and the pipeline skips it.
package ocr
