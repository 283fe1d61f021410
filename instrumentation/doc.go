// Package instrumentation provides OpenTelemetry meters and tracers for
// the credential engine. When disabled it hands out no-op providers so the
// engine and stores can record unconditionally with zero overhead.
package instrumentation
