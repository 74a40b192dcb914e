// Package confloader provides configuration loading mechanism.
//
// This package implements a configuration loader on top of koanf and a
// file watcher on top of fsnotify.
//
// Priority (highest to lowest):
//
//  1. Overrides (LoadMap, used for CLI flags)
//  2. Environment variables (CRYPTOGEN_SECTION_KEY)
//  3. Configuration file (YAML)
//  4. Default values (pre-filled target struct)
//
// Watcher fires debounced callbacks when a watched file is written or
// recreated; the run command uses it to reconfigure the live pool.
package confloader
