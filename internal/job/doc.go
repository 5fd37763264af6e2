// Package job defines the shared value types for external-tool jobs: the
// closed set of job kinds, the resolved per-job configuration, job status,
// and the normalized result record consumed by callers.
package job
