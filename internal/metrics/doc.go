// Package metrics records build metrics for the site builder.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	builder := site.NewBuilder(cfg, site.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The CLI has no long-running server, so metrics are exported by writing the
// registry to a node_exporter textfile after each build (see WriteTextfile).
package metrics
