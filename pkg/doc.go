// Package pkg provides the core libraries for meshmap, an interactive map of
// Zigbee mesh networks.
//
// # Overview
//
// A network map snapshot lists devices (one Coordinator, Routers and
// EndDevices) and the radio links between them. Meshmap places the devices
// with a force simulation and renders them as SVG, either live, where every
// device can be dragged, or settled for export.
//
// # Architecture
//
// The typical data flow:
//
//	File / SQLite / MongoDB
//	         ↓
//	    [source] package (load and poll snapshots)
//	         ↓
//	    [topology] package (devices, links, validation)
//	         ↓
//	    [sim] package (force layout)
//	         ↓
//	    [mapview] package (scene graph, drag, tooltip, event loop)
//	         ↓
//	    SVG frames, or [pipeline] exports (SVG/PNG/JPG/PDF/DOT/JSON)
//
// # Main Packages
//
// [topology] - Graph, Node, Link and Device types plus the JSON, YAML and
// TOML codecs.
//
// [sim] - Velocity Verlet force simulation with link, charge, collide and
// center forces, pinning and alpha cooling.
//
// [render] - The retained scene graph ([render/scene]) and the views drawn
// into it: node glyphs with drag ([render/nodes]), links ([render/links]) and
// the hover tooltip ([render/tooltip]). [render/nodelink] exports through
// Graphviz.
//
// [mapview] - The live map: one goroutine owns simulation and scene, serves
// pointer events and publishes frames.
//
// [pipeline] - Load → Layout → Render with caching.
//
// ## Infrastructure
//
// [cache] - File, Redis and null caches with content-addressed keys.
//
// [source] - File, SQLite and MongoDB topology sources.
//
// [session] - Viewer sessions for the live server; each owns a block of
// pointer IDs.
//
// [config] - TOML configuration.
//
// [observability] - Hooks for simulation, cache and HTTP events.
//
// [errors] - Coded errors shared by the CLI and the server.
package pkg
