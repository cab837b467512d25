// Package engine evaluates compiled expressions against the events of one
// partition.
//
// A Context is created per partition from an open reader.Tree and the
// dataset metadata. Descriptors are bound to the context, which resolves
// the columns they read; the resulting Quantity values are then evaluated
// entry by entry:
//
//	ctx, err := engine.NewContext(tree, ds.Meta, engine.Options{Channel: "Ele4J"})
//	if err != nil {
//	    return err
//	}
//	cuts, err := ctx.BindCuts(cutDescriptors)
//	if err != nil {
//	    return err
//	}
//	cutflow := ctx.CutflowSeed()
//	for entry := 0; entry < ctx.Len(); entry++ {
//	    ev := ctx.Begin(entry)
//	    w, ok := cuts.Apply(ev, ctx.BaseWeight(ev), cutflow)
//	    ...
//	}
//
// Object quality tiers are resolved lazily and cached per entry, as are
// ordinal lookups and per-collection momenta. Values that cannot be
// computed (missing column, ordinal beyond the collection) are reported
// as unavailable rather than as a magic number; Sentinel is substituted
// only when such values are written out.
//
// A Context and everything bound to it belong to one goroutine.
package engine
