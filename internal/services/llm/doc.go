// Package llm wraps an OpenAI-compatible chat completion endpoint for the
// structuring stage. Requests always demand JSON output; DecodeLLMJSON
// tolerates the usual model quirks (code fences, leading prose) so callers
// can unmarshal straight into their schema.
package llm
