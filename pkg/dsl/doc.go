/*
Package dsl provides a fluent Go builder for workflow documents.

It produces the same schema.Document a YAML file would, which is useful for
generated workflows, tests, and IDE type-checking.

Example usage:

	wf, err := dsl.New("restart-instance").
		Layout("projects").GET("https://api.example.com/projects").Cached().
		Layout("project").
		Layout("instances").DependsOn("project").
		GET("https://api.example.com/projects/{{ (index .Deps 0).id | pathescape }}/instances").
		Step("project").Title("Project").Hydrates("projects").
		Step("instance").Title("Instance").Hydrates("instances").
		Step("confirm").Title("Confirm").
		Done().Build(nil)
*/
package dsl
