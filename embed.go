package spacetraveling

import "embed"

// EmbeddedAssets contains static assets shipped with the site:
// loadmore.js
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
