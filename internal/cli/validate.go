package cli

import (
	"fmt"

	"github.com/aretw0/orchard/pkg/domain"
	"github.com/aretw0/orchard/pkg/pit"
)

// Validate compiles the pit and lists every problem found.
func Validate(opts RunOptions) error {
	w := opts.out()
	engine, err := createEngine(opts, createLogger(opts), nil, domain.LifecycleHooks{})
	if err == nil {
		fmt.Fprintln(w, "Pit is valid! ✅")
		for _, warning := range pit.Warnings(engine.Dom()) {
			fmt.Fprintf(w, "  ! %s\n", warning)
		}
		return nil
	}

	problems := pit.ValidationErrors(err)
	if len(problems) == 0 {
		return err
	}
	for _, p := range problems {
		fmt.Fprintf(w, "  - %v\n", p)
	}
	return fmt.Errorf("pit has %d problem(s)", len(problems))
}
