// Package file provides file-based implementations of configuration and
// prompt storage. Configuration lives in a single TOML file; prompt
// templates are user-editable text files with embedded defaults.
package file
