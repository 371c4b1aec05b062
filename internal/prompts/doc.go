// Package prompts loads the per-domain prompt template sets.
//
// Templates ship embedded and can be overridden by a YAML file from config.
// Rendering follows the conventions the templates were written in: bare {}
// placeholders fill positionally, {name} placeholders fill by key.
package prompts
