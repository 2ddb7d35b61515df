// Package tabularforge learns the shape of a table and draws new rows that
// look like it: same column types, same marginals, same rank correlations,
// none of the original records.
//
// What is in the box?
//
//	A pure-Go synthetic tabular data engine:
//		• Profiling: per-column type inference and marginal fitting
//		• Dependency: Spearman rank correlation between columns
//		• Sampling: Gaussian copula, chunked and seeded, parallel-safe
//		• Persistence: versioned JSON, YAML or snappy model files
//		• Privacy: optional Laplace noise on the fitted marginals
//		• Evaluation: KS/TVD quality scores and DCR privacy scores
//
// Packages:
//
//	dataset/    named columns of mixed cells, CSV and table rendering
//	profile/    type inference and continuous/categorical/datetime marginals
//	dependency/ rank correlation structure between profiled columns
//	matrix/     dense matrices, eigen projection, Cholesky factor
//	model/      fitted model, fingerprint and codec
//	sampler/    copula sampling of a model into a new dataset
//	privacy/    differential privacy noise on profiles
//	evaluate/   quality and privacy reports of synthetic data
//	forge/      the Fit / Generate / Save / Load facade
//	config/     layered YAML + environment configuration
//	sqlio/      load and store datasets through database/sql
//
// Quick tour:
//
//	f := forge.New()
//	if err := f.Fit(ctx, ds); err != nil { ... }
//	synth, err := f.Generate(ctx, 500, sampler.WithSeed(42))
//
// See examples/basic_usage for an end-to-end run.
//
//	go get github.com/katalvlaran/tabularforge
package tabularforge
