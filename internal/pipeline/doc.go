// Package pipeline produces chain-of-thought reasoning traces for dataset
// items by orchestrating multimodal and text-only model calls.
package pipeline
