// Package forestrank trains tree ensembles and ranks descriptive attributes
// by importance.
//
// forestrank は決定木アンサンブル（Bagging、Random Forest、Random Subspaces、
// Extra Trees）を並列に学習し、OOB誤差を推定し、属性の重要度ランキングを
// 計算するためのライブラリとCLIです。
//
// # Packages
//
//   - core/dataset: attribute metadata, tuples and CSV loading
//   - core/statistic: predictions and voting
//   - core/model: contracts between the ensemble and the tree inducer
//   - tree: the reference unpruned tree inducer
//   - ensemble: bag sampling, forests, OOB estimation and the coordinator
//   - ranking: permutation, Genie3 and symbolic importance; ranking output
//   - ranking/relief: Relief importance and nearest-neighbour search
//   - metrics: error measures used for OOB errors and permutation ranking
//   - store: BoltDB checkpoint store
//   - config: file and environment configuration
//   - pkg/errors, pkg/log, pkg/telemetry: errors, structured logging, metrics
//
// # Quick Start
//
//	data, err := dataset.LoadCSV("data.csv", dataset.CSVOptions{Targets: []string{"class"}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := ensemble.DefaultConfig()
//	cfg.Ranking = ensemble.RankingGenie3
//
//	res, err := ensemble.NewCoordinator(tree.NewInducer()).Induce(ctx, data, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res.Ranking.WriteText(os.Stdout)
//
// Bag seeds are drawn from Config.Seed before any bag runs, so the same seed
// gives the same forest and ranking for any number of threads.
package forestrank
