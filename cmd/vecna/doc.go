// Command vecna is the admin CLI for the Vecna pipeline.
//
// Read commands (game list, game show, family list, can) accept --json for
// machine output and print tables otherwise. Write commands (advance,
// override, family process, reclaim) run the workflow in-process against the
// SQLite game store. `vecna serve` exposes the same operations over HTTP and
// runs the stale in-flight reclaimer.
package main
