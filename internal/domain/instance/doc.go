// Package instance provides the registry of managed runtime instances.
//
// Each instance owns a file tree rooted at its working directory. The file
// gateway only asks the registry whether an instance exists and where its
// root is; instance lifecycle is handled elsewhere.
//
// Instances can be seeded from a YAML (.yaml, .yml) or TOML (.toml) file:
//
//	instances:
//	  - uuid: 7f1c...
//	    nickname: survival
//	    cwd: /srv/instances/survival
package instance
