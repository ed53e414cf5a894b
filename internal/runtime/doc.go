// Package runtime wires the storage plugins, converter factory, metadata IO,
// logger and metrics into ready-to-use Reindexers. It exposes Open/Close,
// basic health checks and accessors used by the command layer.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	// Health
//	_ = rt.CheckHealth(context.Background())
//	// Reindex a bag
//	r := rt.NewReindexer()
//	_ = r.Open(ctx, rt.StorageOptions("/data/my_bag"), rt.ConverterOptions())
//	md, _ := r.Reindex(ctx)
package runtime
