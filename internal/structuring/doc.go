// Package structuring derives a filing record (category, document date,
// correspondent, summary, tags) from extracted text. The primary path asks an
// OpenAI-compatible model for JSON; without a configured model, or for
// operators who keep structuring offline, keyword rules classify instead.
package structuring
