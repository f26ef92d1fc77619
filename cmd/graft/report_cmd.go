package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/graftml/graft"
	"github.com/graftml/graft/dataset"
	"github.com/graftml/graft/feature"
	"github.com/spf13/cobra"
)

type reportCmdConfig struct {
	dataCmdConfig
	treeInput    string
	oracleInput  string
	output       string
	top          int
	keepBranches int
	prunedOutput string
}

/*
surrogateReport is the JSON document the report command produces: how
faithful the surrogate is to the oracle and how well the oracle does
against the dataset labels, a verdict on whether the oracle can be
trusted given that fidelity, and ranked breakdowns of the surrogate's
structure.
*/
type surrogateReport struct {
	Fidelity     float64          `json:"fidelity"`
	Performance  float64          `json:"performance"`
	Accuracy     float64          `json:"accuracy"`
	Verdict      string           `json:"verdict"`
	Blackbox     blackboxSummary  `json:"blackbox"`
	Surrogate    surrogateSummary `json:"surrogate"`
	TotalSamples int              `json:"totalSamples"`
	TopFeatures  []reportFeature  `json:"topFeatures"`
	TopSplits    []reportSplit    `json:"topSplits"`
	TopBranches  []reportBranch   `json:"topBranches"`
}

// blackboxSummary describes the dataset the oracle was queried on.
type blackboxSummary struct {
	Samples  int `json:"samples"`
	Features int `json:"features"`
	Classes  int `json:"classes"`
}

// surrogateSummary describes the surrogate's size and how much of
// the problem space it covers: the share of the dataset's features
// it splits on and of the label's classes it predicts.
type surrogateSummary struct {
	Nodes               int     `json:"nodes"`
	Leaves              int     `json:"leaves"`
	FeaturesUsed        int     `json:"featuresUsed"`
	FeaturesUsedPct     float64 `json:"featuresUsedPct"`
	ClassesPredicted    int     `json:"classesPredicted"`
	ClassesPredictedPct float64 `json:"classesPredictedPct"`
}

type reportFeature struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Samples int    `json:"samples"`
}

type reportSplit struct {
	Node          int     `json:"node"`
	Feature       string  `json:"feature"`
	Threshold     float64 `json:"threshold"`
	Samples       int     `json:"samples"`
	ImpurityLeft  float64 `json:"impurityLeft"`
	ImpurityRight float64 `json:"impurityRight"`
}

type reportBranch struct {
	Rule    string  `json:"rule"`
	Class   string  `json:"class"`
	Prob    float64 `json:"prob"`
	Samples int     `json:"samples"`
}

func reportCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &reportCmdConfig{dataCmdConfig: dataCmdConfig{rootCmdConfig: rootConfig}}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report on an extracted surrogate tree",
		Long:  `Analyze an extracted surrogate tree over a dataset: measure its fidelity to the oracle, give a trust verdict and list the features, splits and branches it relies on most. Optionally prune the surrogate down to its strongest branches.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			ctx := context.Background()
			features, label, err := config.features()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			ds, err := config.dataset(ctx, features, label)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			surrogate, err := loadTree(config.treeInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			oracle, err := buildOracle(config.oracleInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			yOracle, err := oracle.Predict(ctx, ds)
			if err != nil {
				fmt.Fprintf(os.Stderr, "querying oracle: %v\n", err)
				os.Exit(6)
			}
			ySurrogate, err := surrogate.PredictAll(ds.X())
			if err != nil {
				fmt.Fprintf(os.Stderr, "predicting with surrogate: %v\n", err)
				os.Exit(7)
			}
			analysis, err := graft.Walk(surrogate)
			if err != nil {
				fmt.Fprintf(os.Stderr, "analyzing surrogate: %v\n", err)
				os.Exit(8)
			}
			report := buildReport(analysis, ds, yOracle, ySurrogate, config.top)
			config.Logf("Surrogate fidelity %.4f, verdict: %s", report.Fidelity, report.Verdict)
			err = outputReport(config.output, report)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(9)
			}
			if config.keepBranches > 0 {
				config.Logf("Pruning surrogate down to its %d strongest branches...", config.keepBranches)
				pruned, err := graft.Prune(surrogate, config.keepBranches, graft.BranchSamples)
				if err != nil {
					fmt.Fprintf(os.Stderr, "pruning surrogate: %v\n", err)
					os.Exit(10)
				}
				err = outputTree(config.prunedOutput, pruned)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(11)
				}
			}
		},
	}
	config.declareFlags(cmd)
	cmd.Flags().StringVarP(&(config.treeInput), "tree", "t", "", "path to a JSON file with the surrogate tree to report on (required)")
	cmd.Flags().StringVarP(&(config.oracleInput), "oracle", "O", "", "path to a JSON file with the opaque model's own decision tree (defaults to scoring against the dataset labels)")
	cmd.Flags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the report will be written in JSON format (defaults to STDOUT)")
	cmd.Flags().IntVarP(&(config.top), "top", "k", 10, "number of entries per ranked report listing")
	cmd.Flags().IntVarP(&(config.keepBranches), "keep-branches", "p", 0, "prune the surrogate down to this number of strongest branches (defaults to 0: no pruning)")
	cmd.Flags().StringVar(&(config.prunedOutput), "pruned-output", "", "path to a file to which the pruned surrogate will be written in JSON format (defaults to STDOUT)")
	return cmd
}

func (rcc *reportCmdConfig) Validate() error {
	err := rcc.dataCmdConfig.Validate()
	if err != nil {
		return err
	}
	if rcc.treeInput == "" {
		return fmt.Errorf("required tree flag was not set")
	}
	if rcc.top < 1 {
		return fmt.Errorf("top flag must be at least 1")
	}
	return nil
}

/*
buildReport assembles the report document: agreement scores between
the oracle and the dataset labels and surrogate predictions, the
trust verdict those scores earn, summaries of the dataset and the
surrogate's structure, and the top-ranked features, splits and
branches of the walk analysis.
*/
func buildReport(analysis *graft.Analysis, ds *dataset.Dataset, yOracle, ySurrogate []int, top int) *surrogateReport {
	features := ds.Features()
	label := ds.Label()
	report := &surrogateReport{
		Fidelity:     graft.MacroF1(yOracle, ySurrogate, ds.NumClasses()),
		Performance:  graft.MacroF1(ds.Y(), yOracle, ds.NumClasses()),
		Accuracy:     graft.Accuracy(yOracle, ySurrogate),
		TotalSamples: analysis.TotalSamples,
		Blackbox: blackboxSummary{
			Samples:  ds.Count(),
			Features: ds.NumFeatures(),
			Classes:  ds.NumClasses(),
		},
	}
	report.Verdict = graft.VerdictOf(report.Fidelity).String()
	classesPredicted := make(map[int]bool)
	for _, b := range analysis.Branches {
		classesPredicted[b.Class] = true
	}
	report.Surrogate = surrogateSummary{
		Nodes:            len(analysis.Splits) + len(analysis.Branches),
		Leaves:           len(analysis.Branches),
		FeaturesUsed:     len(analysis.FeaturesUsed),
		ClassesPredicted: len(classesPredicted),
	}
	if ds.NumFeatures() > 0 {
		report.Surrogate.FeaturesUsedPct = float64(len(analysis.FeaturesUsed)) / float64(ds.NumFeatures()) * 100
	}
	if ds.NumClasses() > 0 {
		report.Surrogate.ClassesPredictedPct = float64(len(classesPredicted)) / float64(ds.NumClasses()) * 100
	}
	for _, rf := range analysis.TopFeatures(top) {
		report.TopFeatures = append(report.TopFeatures, reportFeature{
			Name:    featureName(features, rf.Feature),
			Count:   rf.Usage.Count,
			Samples: rf.Usage.Samples,
		})
	}
	for _, s := range analysis.TopSplits(top) {
		report.TopSplits = append(report.TopSplits, reportSplit{
			Node:          s.Node,
			Feature:       featureName(features, s.Feature),
			Threshold:     s.Threshold,
			Samples:       s.Samples,
			ImpurityLeft:  s.ImpurityLeft,
			ImpurityRight: s.ImpurityRight,
		})
	}
	for _, b := range analysis.TopBranches(top) {
		report.TopBranches = append(report.TopBranches, reportBranch{
			Rule:    branchRule(b, features),
			Class:   label.Class(b.Class),
			Prob:    b.Prob,
			Samples: b.Samples,
		})
	}
	return report
}

func featureName(features []*feature.Feature, i int) string {
	if i < 0 || i >= len(features) {
		return fmt.Sprintf("%d", i)
	}
	return features[i].Name()
}

func branchRule(b graft.Branch, features []*feature.Feature) string {
	if len(b.Path) == 0 {
		return "always"
	}
	rule := ""
	for i, p := range b.Path {
		if i > 0 {
			rule += " and "
		}
		rule += fmt.Sprintf("%s %s %g", featureName(features, p.Feature), p.Op, p.Threshold)
	}
	return rule
}

func outputReport(outputPath string, report *surrogateReport) error {
	var f *os.File
	var err error
	if outputPath == "" {
		f = os.Stdout
	} else {
		f, err = os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
