/*
Package layouts manages multi-step forms whose fields are backed by data that has to be fetched.

Each piece of data is a layout: a named node with an optional hydrator (the function that fetches
it), a list of layouts it depends on, and transforms applied to what the hydrator returns. A wizard
walks an ordered list of steps and, whenever a step becomes active, hydrates the layouts it needs.

# Concept

A hydrator only runs once every dependency holds data, and it receives that data in declaration
order. Results merge into what the layout already holds: objects are patched key by key, lists
accumulate, and anything else is replaced. Failures keep the existing data and record the error.

Workflows are usually written as YAML documents and compiled against a registry of named
producers (static values, REST endpoints, transforms):

	name: restart-instance
	layouts:
	  projects:
	    hydrator: {kind: http, args: {url: "https://api.example.com/projects"}}
	    cache: true
	  project: {}
	  instances:
	    deps: [project]
	    hydrator:
	      kind: http
	      args: {url: "https://api.example.com/projects/{{ (index .Deps 0).id | pathescape }}/instances"}
	steps:
	  - id: project
	    hydrates: [projects]
	  - id: instance
	    hydrates: [instances]
	  - id: confirm

# Usage

	eng, err := layouts.New("./workflows")
	if err != nil {
		log.Fatal(err)
	}

	sess, err := eng.Start(ctx, "restart-instance")
	if err != nil {
		log.Fatal(err)
	}

	sess.Layouts.Query("project").Assign(map[string]any{"id": "infra"})
	if err := sess.Wizard.Next(ctx).Wait(ctx); err != nil {
		log.Printf("instances: %v", err)
	}

The same engine backs the HTTP server and the interactive terminal runner of cmd/layouts.
*/
package layouts
