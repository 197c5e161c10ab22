// Package schema reads workflow documents: YAML files declaring the layouts of
// a screen, how each one is hydrated and the wizard steps that mount them.
//
// A document is parsed, validated and then compiled against a registry of
// producer kinds into a Workflow, which can open any number of independent
// sessions.
//
//	name: restart-instance
//	title: Restart an instance
//	layouts:
//	  projects:
//	    hydrator:
//	      kind: http
//	      args: {url: "https://api.example.com/projects"}
//	  project: {}
//	  instances:
//	    deps: [project]
//	    hydrator:
//	      kind: http
//	      args: {url: "https://api.example.com/projects/{{ index (index .Deps 0) \"id\" | pathescape }}/instances"}
//	    transform: {kind: pick, args: {path: items}}
//	steps:
//	  - id: project
//	    hydrates: [projects]
//	  - id: instance
//	    hydrates: [instances]
//
// Producer specs accept a bare kind as shorthand: "hydrator: echo".
package schema
