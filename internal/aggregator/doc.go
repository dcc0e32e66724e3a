// Package aggregator folds successful poll outcomes into the shared report.
package aggregator
