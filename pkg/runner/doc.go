/*
Package runner implements the iteration loop of an Orchard test.

It sits between the core engine, which runs one pass of a state model, and the outside world.
The runner repeats that pass for the configured number of iterations, keeps soft failures from
ending the run, closes and stops publishers the iterations leave behind, and persists a
domain.RunRecord describing the outcome.

# Key Components

  - Runner: owns the loop. Configured with functional options.
  - Metrics: Prometheus collectors for iterations, actions and run outcomes.
  - Locker: serializes runs of the same test inside a process and, optionally, across
    processes through a ports.DistributedLocker.

# Usage

	r := runner.New(engine,
		runner.WithStore(store),
		runner.WithMetrics(runner.NewMetrics(prometheus.DefaultRegisterer)),
	)

	rec, err := r.Run(ctx, dom, dom.Test("Default"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(rec.Status, rec.SoftFailures)
*/
package runner
