// Package prediction estimates battery health and remaining driving distance
// from six operating parameters. Estimates come from a random forest of
// regression trees fitted on synthetic ground truth.
//
// Construction is explicit and split in phases so callers and tests control
// storage: Load reads a persisted artifact from a Store, Train synthesises a
// data set and fits a fresh forest, and Save persists it. LoadOrTrain chains
// the three the way the service does at startup; an existing artifact always
// takes precedence over retraining.
package prediction
