// Package health reports whether a plan engine's dependencies are usable:
// the interruption store, the file sync directories and the worker pools.
//
// Each check returns a Status. A Report collects them by component name and
// takes the worst level among them:
//
//	report := health.NewReport()
//	report.Add("interrupt_store", health.StoreCheck(ctx, store))
//	report.Add("upload_root", health.DirCheck("/var/uploads"))
//	report.Add("pools", health.PoolCheck(registry.Stats()))
//	if report.Level == health.LevelUnhealthy {
//	    log.Fatal(report.Summary())
//	}
package health
