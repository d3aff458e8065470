// Package web embeds the octscan browser page served by `octscan serve`.
package web

import "embed"

// Assets holds dist/, which SPAHandler serves at the site root.
//
//go:embed all:dist
var Assets embed.FS
