// Package volcanocache serves volcano-plot point clouds: it synthesizes a
// reproducible dataset per requested size, caches it until an explicit
// clear, categorizes points under request thresholds and samples them down
// to a zoom-dependent render budget with significant points first.
package volcanocache
