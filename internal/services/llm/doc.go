// Package llm talks to an OpenRouter-style chat completions API.
//
// The client supports multimodal prompts (text plus inline base64 image
// parts) for the vision model and plain text prompts for the refinement
// model, with bounded retry on rate limits, server errors, and timeouts.
package llm
