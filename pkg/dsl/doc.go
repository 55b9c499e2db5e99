/*
Package dsl provides a Go DSL for programmatically constructing Lobster pipelines.

It builds the same stage descriptors the parser produces, so values never need
manual quoting. This is particularly useful when flag values come from user
input or from another command's output.

Example usage:

	p := dsl.New()
	p.Stage("exec").Flag("json", true).Words("gh", "pr", "list", "--json", "number,title").
		Then("pick").Words("number,title").
		Then("head").Flag("n", 5)

	stages, err := p.Build()
	// ... pass stages to (*lobster.Engine).RunStages
	fmt.Println(p.String())
*/
package dsl
