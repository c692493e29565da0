// Package prompt provides simple interactive prompts.
//
// Available prompts:
//   - [Confirm]: Yes/No confirmation prompt
//   - [TextInput]: Single-line text input
//   - [Select]: Fuzzy-filtered selection from a list
//
// All prompts render to stderr with the color profile detected for it.
package prompt
