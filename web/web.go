// Package web holds the embedded static front-end.
package web

import "embed"

//go:embed index.html
var Files embed.FS
