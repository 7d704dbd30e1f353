// Package analytics implements the review risk and trend computations.
//
// Classifier labels a review from its ratings, Aggregator counts labels over a trailing
// half-open window, Evaluator turns counts into a RiskSignal and Bucketer produces the
// daily volume series. Only the review store fetch blocks; everything else is pure.
// ResultCache is the short-lived in-process memo used by the application facade.
package analytics
