package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/graftml/graft"
	"github.com/graftml/graft/dataset"
	"github.com/graftml/graft/dataset/csv"
	"github.com/graftml/graft/dataset/mongodataset"
	"github.com/graftml/graft/dataset/sqldataset"
	"github.com/graftml/graft/dataset/sqldataset/pgadapter"
	"github.com/graftml/graft/dataset/sqldataset/sqlite3adapter"
	"github.com/graftml/graft/feature"
	"github.com/graftml/graft/feature/yaml"
	"github.com/graftml/graft/tree"
	treejson "github.com/graftml/graft/tree/json"
	"github.com/spf13/cobra"
	mgo "gopkg.in/mgo.v2"
)

/*
dataCmdConfig gathers the flags shared by every command that reads
samples: where the data is, the YML metadata describing its features
and the feature to predict.

The data input is interpreted according to its form: a PostgreSQL
connection URL, a MongoDB connection URL, a path to an SQLite3 (.db)
file, a path to a CSV file or, when empty, CSV content on STDIN.
*/
type dataCmdConfig struct {
	*rootCmdConfig
	dataInput     string
	metadataInput string
	labelFeature  string
	maxDBConns    int
}

func (dcc *dataCmdConfig) Validate() error {
	if dcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if dcc.labelFeature == "" {
		return fmt.Errorf("required label-feature flag was not set")
	}
	return nil
}

func (dcc *dataCmdConfig) declareFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&(dcc.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with samples (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(dcc.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input (required)")
	cmd.PersistentFlags().StringVarP(&(dcc.labelFeature), "label-feature", "c", "", "name of the feature the surrogates should predict (required)")
	cmd.PersistentFlags().IntVar(&(dcc.maxDBConns), "max-db-conns", 0, "limit to DB connections opened at a time (defaults to 0: no limit)")
}

/*
features reads the YML metadata and splits the label feature from the
rest.
*/
func (dcc *dataCmdConfig) features() ([]*feature.Feature, *feature.Feature, error) {
	dcc.Logf("Reading features from metadata at %s...", dcc.metadataInput)
	features, err := yaml.ReadFeaturesFromFile(dcc.metadataInput)
	if err != nil {
		return nil, nil, err
	}
	label, features, err := feature.Select(features, dcc.labelFeature)
	if err != nil {
		return nil, nil, err
	}
	if label.Continuous() {
		return nil, nil, fmt.Errorf("label feature '%s' is not discrete", dcc.labelFeature)
	}
	dcc.Logf("Features from metadata read")
	return features, label, nil
}

func (dcc *dataCmdConfig) dataset(ctx context.Context, features []*feature.Feature, label *feature.Feature) (*dataset.Dataset, error) {
	return loadDataset(ctx, dcc.rootCmdConfig, dcc.dataInput, dcc.maxDBConns, features, label)
}

func loadDataset(ctx context.Context, rcc *rootCmdConfig, input string, maxDBConns int, features []*feature.Feature, label *feature.Feature) (*dataset.Dataset, error) {
	if strings.HasPrefix(input, "postgresql://") {
		rcc.Logf("Creating PostgreSQL adapter for url %s to read samples...", input)
		adapter, err := pgadapter.New(input)
		if err != nil {
			return nil, err
		}
		return sqldataset.Read(ctx, adapter, features, label)
	}
	if strings.HasPrefix(input, "mongodb://") {
		rcc.Logf("Connecting to MongoDB at %s to read samples...", input)
		session, err := mgo.Dial(input)
		if err != nil {
			return nil, err
		}
		defer session.Close()
		return mongodataset.Read(ctx, session, features, label)
	}
	if strings.HasSuffix(input, ".db") {
		rcc.Logf("Creating SQLite3 adapter for file %s to read samples...", input)
		adapter, err := sqlite3adapter.New(input, maxDBConns)
		if err != nil {
			return nil, err
		}
		return sqldataset.Read(ctx, adapter, features, label)
	}
	if input == "" {
		rcc.Logf("Reading samples from STDIN...")
	} else {
		rcc.Logf("Opening %s to read samples...", input)
	}
	return csv.ReadFromFilePath(input, features, label)
}

func writeDataset(ctx context.Context, rcc *rootCmdConfig, output string, maxDBConns int, ds *dataset.Dataset) error {
	if strings.HasPrefix(output, "postgresql://") {
		rcc.Logf("Creating PostgreSQL adapter for url %s to write samples...", output)
		adapter, err := pgadapter.New(output)
		if err != nil {
			return err
		}
		err = sqldataset.Create(ctx, adapter, ds.Features(), ds.Label())
		if err != nil {
			return err
		}
		_, err = sqldataset.Write(ctx, adapter, ds)
		return err
	}
	if strings.HasPrefix(output, "mongodb://") {
		rcc.Logf("Connecting to MongoDB at %s to write samples...", output)
		session, err := mgo.Dial(output)
		if err != nil {
			return err
		}
		defer session.Close()
		err = mongodataset.EnsureIndexes(ctx, session, ds.Features())
		if err != nil {
			return err
		}
		_, err = mongodataset.Write(ctx, session, ds)
		return err
	}
	if strings.HasSuffix(output, ".db") {
		rcc.Logf("Creating SQLite3 adapter for file %s to write samples...", output)
		adapter, err := sqlite3adapter.New(output, maxDBConns)
		if err != nil {
			return err
		}
		err = sqldataset.Create(ctx, adapter, ds.Features(), ds.Label())
		if err != nil {
			return err
		}
		_, err = sqldataset.Write(ctx, adapter, ds)
		return err
	}
	if output == "" {
		rcc.Logf("Using STDOUT to dump samples...")
	} else {
		rcc.Logf("Creating %s to dump samples...", output)
	}
	return csv.WriteToFilePath(output, ds)
}

func loadTree(filepath string) (*tree.Tree, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading tree in JSON from %s: %v", filepath, err)
	}
	defer f.Close()
	t, err := treejson.ReadTree(f)
	if err != nil {
		err = fmt.Errorf("parsing tree in JSON from %s: %v", filepath, err)
	}
	return t, err
}

func outputTree(outputPath string, t *tree.Tree) error {
	var f *os.File
	var err error
	if outputPath == "" {
		f = os.Stdout
	} else {
		f, err = os.Create(outputPath)
		if err != nil {
			return err
		}
	}
	defer f.Close()
	return treejson.WriteTree(f, t)
}

/*
buildOracle returns the oracle to extract from: the decision tree at
the given path when one is given, so its predictions drive the
extraction, or an oracle that replays the dataset's own labels
otherwise.
*/
func buildOracle(oraclePath string) (graft.Oracle, error) {
	if oraclePath == "" {
		return graft.LabelOracle{}, nil
	}
	t, err := loadTree(oraclePath)
	if err != nil {
		return nil, err
	}
	return &graft.TreeOracle{Tree: t}, nil
}
