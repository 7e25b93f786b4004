package web

import "embed"

// Content holds the embedded constellation viewer frontend.
//
//go:embed index.html app.js styles.css
var Content embed.FS
