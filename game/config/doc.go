// Package config provides the level catalog for the Sokoban game.
//
// The config package handles:
//   - Built-in levels compiled into the binary
//   - Loading extra levels from a directory of JSON or YAML files
//   - Level listing, lookup and "next level" ordering
//   - Saving authored levels back to disk
//
// Level Format:
//
// A level is either a list of coordinates or a text layout:
//
//	level: 3
//	name: Corridor
//	layout:
//	  - "#######"
//	  - "#@ $ .#"
//	  - "#######"
//
// Every level is validated with engine.ValidateLevel when loaded, so the
// engine never sees an inconsistent definition.
//
// Usage:
//
//	manager, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	def, err := manager.LoadLevel(2)
//	next, err := manager.NextLevel(def.Level)
package config
