// Package within embeds "Within", a short Lua-authored exploration game.
package within

import "embed"

// FS holds the game's Lua sources.
//
//go:embed *.lua
var FS embed.FS
