//go:build plugin

package main

var (
	PLUGIN_ID   = [4]byte{'P', 'S', 'I', 'N'}
	PLUGIN_NAME = "Polysine"
)
