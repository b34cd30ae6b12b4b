// Package app wires configuration, tailing, aggregation and the UI together.
//
// Run is the composition root:
//
//	Run()
//	  ├─> loadConfig()        config file plus -log / -poll overrides
//	  ├─> setupLogging()      logrus to log_output, the TUI owns the terminal
//	  ├─> heatmap.New()       aggregator over the configured address space
//	  ├─> logtail.NewFile()   tailer on the trace file
//	  ├─> metrics.Serve()     only when metrics_addr is set
//	  ├─> watchTrace()        fsnotify early wake-up, optional
//	  ├─> startPoller()       background Poll -> Ingest -> Snapshot -> Store
//	  └─> ui.Run()            blocks until quit or cancellation
//
// The poller is the only goroutine that ingests. A tick never overlaps the
// next one: the timer is re-armed after each tick. While the trace cannot be
// read the interval doubles per failure up to maxBackoff and the previous
// heatmap stays visible with the error.
package app
