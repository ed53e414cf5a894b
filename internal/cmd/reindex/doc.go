// Package reindexrun exposes the shared Run entrypoint used by the CLI to
// reindex a bag and persist its index, plus the info printer.
//
// Example:
//
//	opts := reindexrun.Options{URI: "/data/my_bag", Config: config.Default()}
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	summary, err := reindexrun.Run(ctx, opts)
package reindexrun
