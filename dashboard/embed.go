// Package dashboard provides the embedded web UI assets for statsboard.
//
// The page loads the Google Charts library, subscribes to the server's event
// stream and draws each widget into its element as draw events arrive. Alert
// events are shown as browser alerts.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
