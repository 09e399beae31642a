// Package render draws telemetry into an in-memory HTML document.
//
// A Page owns three anchors of its host document:
//
//	#traffic-table tbody   traffic matrix rows
//	#tables-container      one table per router
//	#update-time           "Last updated" label
//
// Every render replaces the anchor's content, so the document only ever
// reflects the last frame of each kind. Values are inserted as text nodes
// and are therefore always escaped.
package render
