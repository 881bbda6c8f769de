package tideloom_test

import (
	"context"
	"fmt"
	"log"

	"github.com/tideloom/tideloom"
	"github.com/tideloom/tideloom/pkg/dsl"
)

// ExampleEngine_Run demonstrates running a YAML workflow document end to
// end: a switch routes the order, then a set labels it.
func ExampleEngine_Run() {
	doc := []byte(`
document:
  dsl: "1.0.0"
  namespace: examples
  name: triage
  version: "0.1.0"
do:
  - classify:
      switch:
        - urgent:
            when: "${ input.priority > 7 }"
            then:
              set:
                queue: oncall
        - default:
            then:
              set:
                queue: backlog
  - label:
      set:
        summary: "${ \"routed to \" + context.queue }"
`)

	eng := tideloom.New()
	out, err := eng.Run(context.Background(), doc, map[string]any{"priority": 9})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(out.(map[string]any)["summary"])
	// Output: routed to oncall
}

// ExampleEngine_RunWorkflow builds the same kind of workflow in Go with
// the dsl package, skipping YAML entirely.
func ExampleEngine_RunWorkflow() {
	wf := dsl.Workflow("greeter",
		dsl.Step("greet", dsl.Set(
			dsl.Assign("message", `${ "hello " + input.name }`),
		)),
	)

	eng := tideloom.New()
	out, err := eng.RunWorkflow(context.Background(), wf, eng.NewRunContext(wf.Document.Name), map[string]any{"name": "ada"})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(out.(map[string]any)["message"])
	// Output: hello ada
}
