// Package defaults provides embedded copies of the example config and
// prompt files for use by the init subcommand.
package defaults

import _ "embed"

// ConfigYAML is the example configuration file.
//
//go:embed config.example.yaml
var ConfigYAML []byte

// PromptMD is the example system prompt override.
//
//go:embed prompt.example.md
var PromptMD []byte
