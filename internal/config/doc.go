// Package config resolves server settings: the HTTP listener, rate limiting,
// logging, the packing result cache, packing defaults and session bounds.
// Sources are applied with precedence CLI flags > YAML file > environment >
// defaults, and the default strategy name is canonicalized on load.
package config
