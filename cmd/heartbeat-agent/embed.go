package main

import _ "embed"

// embeddedConfig holds the YAML configuration compiled into the binary.
// Build scripts may overwrite embed_config.yaml before compiling to bake in
// site defaults; file and environment settings still take precedence.
//
//go:embed embed_config.yaml
var embeddedConfig []byte
