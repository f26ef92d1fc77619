/*
Package csv reads and writes datasets as CSV streams. It is the
default backend for datasets given as plain files.
*/
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/graftml/graft/dataset"
	"github.com/graftml/graft/feature"
)

/*
Read takes an io.Reader for a CSV stream, a slice of features and a
label feature and returns a dataset with the samples parsed from the
reader or an error.

The header or first row of the CSV content is expected to contain the
names of every given feature and of the label, in any order; columns
with other names are ignored. The rest of the rows should consist of
valid values for their column's feature: decimal numbers for
continuous features and available values for discrete ones. The
columns of the returned dataset's matrix follow the order of the
given feature slice, not the CSV header.
*/
func Read(reader io.Reader, features []*feature.Feature, label *feature.Feature) (*dataset.Dataset, error) {
	r := csv.NewReader(reader)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %v", err)
	}
	columns, labelColumn, err := parseColumnsFromCSVHeader(header, features, label)
	if err != nil {
		return nil, err
	}
	var x [][]float64
	var y []int
	for l := 2; ; l++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading body: %v", err)
		}
		sample := make([]float64, len(features))
		for i, f := range features {
			sample[i], err = parseValueFromCSVRow(row, columns[i], f)
			if err != nil {
				return nil, fmt.Errorf("parsing line %d: %v", l, err)
			}
		}
		if labelColumn >= len(row) {
			return nil, fmt.Errorf("parsing line %d: missing value for label %s", l, label.Name())
		}
		class, ok := label.ClassIndex(row[labelColumn])
		if !ok {
			return nil, fmt.Errorf("parsing line %d: invalid value %q for label %s", l, row[labelColumn], label.Name())
		}
		x = append(x, sample)
		y = append(y, class)
	}
	return dataset.New(features, label, x, y)
}

/*
ReadFromFilePath takes a filepath string, a slice of features and a
label feature, opens the file the filepath points to (os.Stdin if the
filepath is "") and uses Read to return a dataset read from it. It
returns an error if the file cannot be opened for reading or its
content cannot be parsed.
*/
func ReadFromFilePath(filepath string, features []*feature.Feature, label *feature.Feature) (*dataset.Dataset, error) {
	var f *os.File
	var err error
	if filepath == "" {
		f = os.Stdin
	} else {
		f, err = os.Open(filepath)
		if err != nil {
			return nil, fmt.Errorf("reading dataset: %v", err)
		}
	}
	defer f.Close()
	ds, err := Read(f, features, label)
	if err != nil {
		err = fmt.Errorf("parsing CSV file %s: %v", filepath, err)
	}
	return ds, err
}

/*
Write dumps the given dataset to the given writer in CSV format, with
a header row listing the dataset's feature names followed by the
label name. Discrete feature values and labels are written as their
value strings, continuous values as decimal numbers.
*/
func Write(writer io.Writer, ds *dataset.Dataset) error {
	w := csv.NewWriter(writer)
	header := append(feature.Names(ds.Features()), ds.Label().Name())
	err := w.Write(header)
	if err != nil {
		return fmt.Errorf("writing CSV header: %v", err)
	}
	record := make([]string, len(header))
	for i, row := range ds.X() {
		for j, f := range ds.Features() {
			if f.Continuous() {
				record[j] = strconv.FormatFloat(row[j], 'g', -1, 64)
			} else {
				record[j] = f.Class(int(row[j]))
			}
		}
		record[len(record)-1] = ds.Label().Class(ds.Y()[i])
		err = w.Write(record)
		if err != nil {
			return fmt.Errorf("writing CSV row for sample %d: %v", i, err)
		}
	}
	w.Flush()
	return w.Error()
}

/*
WriteToFilePath dumps the given dataset in CSV format to a file
created at the given filepath, or to os.Stdout if the filepath is "".
*/
func WriteToFilePath(filepath string, ds *dataset.Dataset) error {
	var f *os.File
	var err error
	if filepath == "" {
		f = os.Stdout
	} else {
		f, err = os.Create(filepath)
		if err != nil {
			return fmt.Errorf("writing dataset: %v", err)
		}
		defer f.Close()
	}
	err = Write(f, ds)
	if err != nil {
		return fmt.Errorf("writing CSV file %s: %v", filepath, err)
	}
	return nil
}

func parseColumnsFromCSVHeader(header []string, features []*feature.Feature, label *feature.Feature) ([]int, int, error) {
	columnsByName := make(map[string]int)
	for i, name := range header {
		columnsByName[name] = i
	}
	columns := make([]int, len(features))
	for i, f := range features {
		c, ok := columnsByName[f.Name()]
		if !ok {
			return nil, 0, fmt.Errorf("parsing header: no column for feature %s", f.Name())
		}
		columns[i] = c
	}
	labelColumn, ok := columnsByName[label.Name()]
	if !ok {
		return nil, 0, fmt.Errorf("parsing header: no column for label %s", label.Name())
	}
	return columns, labelColumn, nil
}

func parseValueFromCSVRow(row []string, column int, f *feature.Feature) (float64, error) {
	if column >= len(row) {
		return 0, fmt.Errorf("missing value for feature %s", f.Name())
	}
	v := row[column]
	if f.Continuous() {
		value, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("converting %s to float64 for feature %s: %v", v, f.Name(), err)
		}
		return value, nil
	}
	class, ok := f.ClassIndex(v)
	if !ok {
		return 0, fmt.Errorf("invalid value %q for feature %s", v, f.Name())
	}
	return float64(class), nil
}
