// Package worker runs task handlers against jobs fetched from a
// repository: the sub-worker pool, the stranded-job janitor, and the
// periodic deferrer all live here. Nothing in this package writes SQL
// directly — it speaks to the store through the narrow WorkerRepository
// and PeriodicRepository interfaces it defines for itself.
package worker
