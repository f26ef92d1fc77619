/*
Package sqldataset stores and retrieves datasets on SQL databases.
It works through an Adapter interface that runs the actual SQL
commands, with implementations for specific databases provided in
subpackages. Discrete feature values and labels are stored as their
value strings, continuous values as their numbers.
*/
package sqldataset

import (
	"context"
	"fmt"

	"github.com/graftml/graft/dataset"
	"github.com/graftml/graft/feature"
)

/*
Adapter is an interface providing the methods needed to store and
retrieve samples on a SQL database.

Raw samples are maps from column names to values: strings for
discrete columns and float64s for continuous ones.
*/
type Adapter interface {
	// ColumnName takes a feature name and returns the column name
	// to store its values under, or an error if the feature name
	// cannot be used on the database.
	ColumnName(string) (string, error)

	// CreateSampleTable ensures the samples table exists with a
	// text column per discrete column name and a real column per
	// continuous column name.
	CreateSampleTable(ctx context.Context, discreteColumns, continuousColumns []string) error

	// AddSamples inserts the given raw samples and returns the
	// number actually inserted and an error if not all of them
	// could be.
	AddSamples(ctx context.Context, rawSamples []map[string]interface{}, discreteColumns, continuousColumns []string) (int, error)

	// IterateOnSamples retrieves the stored samples and calls the
	// given lambda with each raw sample and its index. It stops
	// when the lambda returns false or an error.
	IterateOnSamples(ctx context.Context, discreteColumns, continuousColumns []string, lambda func(int, map[string]interface{}) (bool, error)) error

	// CountSamples returns the number of stored samples.
	CountSamples(ctx context.Context) (int, error)
}

/*
Create ensures the samples table for a dataset with the given features
and label exists on the database behind the given adapter. The label
is stored as one more discrete column.
*/
func Create(ctx context.Context, adapter Adapter, features []*feature.Feature, label *feature.Feature) error {
	discreteColumns, continuousColumns, _, err := columnNames(adapter, features, label)
	if err != nil {
		return err
	}
	err = adapter.CreateSampleTable(ctx, discreteColumns, continuousColumns)
	if err != nil {
		return fmt.Errorf("creating samples table: %v", err)
	}
	return nil
}

/*
Write stores the samples of the given dataset on the database behind
the given adapter. It returns the number of samples actually written
and an error if not all of them could be.
*/
func Write(ctx context.Context, adapter Adapter, ds *dataset.Dataset) (int, error) {
	discreteColumns, continuousColumns, labelColumn, err := columnNames(adapter, ds.Features(), ds.Label())
	if err != nil {
		return 0, err
	}
	columns := make([]string, len(ds.Features()))
	for i, f := range ds.Features() {
		columns[i], err = adapter.ColumnName(f.Name())
		if err != nil {
			return 0, err
		}
	}
	rawSamples := make([]map[string]interface{}, 0, ds.Count())
	for i, row := range ds.X() {
		rawSample := make(map[string]interface{})
		for j, f := range ds.Features() {
			if f.Continuous() {
				rawSample[columns[j]] = row[j]
			} else {
				rawSample[columns[j]] = f.Class(int(row[j]))
			}
		}
		rawSample[labelColumn] = ds.Label().Class(ds.Y()[i])
		rawSamples = append(rawSamples, rawSample)
	}
	n, err := adapter.AddSamples(ctx, rawSamples, discreteColumns, continuousColumns)
	if err != nil {
		return n, fmt.Errorf("writing samples: %v", err)
	}
	return n, nil
}

/*
Read retrieves a dataset with the given features and label from the
database behind the given adapter. It returns an error if a stored
sample misses a value or holds one not available for its feature.
*/
func Read(ctx context.Context, adapter Adapter, features []*feature.Feature, label *feature.Feature) (*dataset.Dataset, error) {
	discreteColumns, continuousColumns, labelColumn, err := columnNames(adapter, features, label)
	if err != nil {
		return nil, err
	}
	columns := make([]string, len(features))
	for i, f := range features {
		columns[i], err = adapter.ColumnName(f.Name())
		if err != nil {
			return nil, err
		}
	}
	count, err := adapter.CountSamples(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting samples: %v", err)
	}
	x := make([][]float64, 0, count)
	y := make([]int, 0, count)
	err = adapter.IterateOnSamples(ctx, discreteColumns, continuousColumns, func(i int, rawSample map[string]interface{}) (bool, error) {
		row := make([]float64, len(features))
		for j, f := range features {
			v, ok := rawSample[columns[j]]
			if !ok {
				return false, fmt.Errorf("sample %d misses a value for feature %s", i, f.Name())
			}
			if f.Continuous() {
				value, ok := v.(float64)
				if !ok {
					return false, fmt.Errorf("sample %d has a %T instead of a float64 for feature %s", i, v, f.Name())
				}
				row[j] = value
			} else {
				value, ok := v.(string)
				if !ok {
					return false, fmt.Errorf("sample %d has a %T instead of a string for feature %s", i, v, f.Name())
				}
				class, ok := f.ClassIndex(value)
				if !ok {
					return false, fmt.Errorf("sample %d has unknown value %q for feature %s", i, value, f.Name())
				}
				row[j] = float64(class)
			}
		}
		v, ok := rawSample[labelColumn]
		if !ok {
			return false, fmt.Errorf("sample %d misses a value for label %s", i, label.Name())
		}
		value, ok := v.(string)
		if !ok {
			return false, fmt.Errorf("sample %d has a %T instead of a string for label %s", i, v, label.Name())
		}
		class, ok := label.ClassIndex(value)
		if !ok {
			return false, fmt.Errorf("sample %d has unknown value %q for label %s", i, value, label.Name())
		}
		x = append(x, row)
		y = append(y, class)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading samples: %v", err)
	}
	return dataset.New(features, label, x, y)
}

func columnNames(adapter Adapter, features []*feature.Feature, label *feature.Feature) (discreteColumns, continuousColumns []string, labelColumn string, err error) {
	for _, f := range features {
		c, err := adapter.ColumnName(f.Name())
		if err != nil {
			return nil, nil, "", err
		}
		if f.Continuous() {
			continuousColumns = append(continuousColumns, c)
		} else {
			discreteColumns = append(discreteColumns, c)
		}
	}
	labelColumn, err = adapter.ColumnName(label.Name())
	if err != nil {
		return nil, nil, "", err
	}
	discreteColumns = append(discreteColumns, labelColumn)
	return discreteColumns, continuousColumns, labelColumn, nil
}
