// Package metrics records phase timings and outcomes of a pipeline run.
//
// Phases report through a [Recorder]. [Noop] discards everything and is the
// default; [Prometheus] collects histograms and counters in its own registry
// and writes them in the text exposition format with [Prometheus.WriteFile],
// for pickup by a node exporter textfile collector.
package metrics
