/*
Package mongodataset stores and retrieves datasets on a MongoDB
database. Samples are kept as documents on a samples collection, with
one field per feature holding the feature's value string for discrete
features and its number for continuous ones, plus a field for the
label.
*/
package mongodataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/graftml/graft/dataset"
	"github.com/graftml/graft/feature"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

const samplesCollectionName = "samples"

/*
Write stores the samples of the given dataset on the default database
for the given MongoDB session. It returns the number of samples
actually written and an error if not all of them could be.
*/
func Write(ctx context.Context, session *mgo.Session, ds *dataset.Dataset) (int, error) {
	err := validateFieldNames(ds.Features(), ds.Label())
	if err != nil {
		return 0, err
	}
	docs := make([]interface{}, 0, ds.Count())
	for i, row := range ds.X() {
		doc := make(bson.M)
		for j, f := range ds.Features() {
			if f.Continuous() {
				doc[f.Name()] = row[j]
			} else {
				doc[f.Name()] = f.Class(int(row[j]))
			}
		}
		doc[ds.Label().Name()] = ds.Label().Class(ds.Y()[i])
		docs = append(docs, doc)
	}
	err = samplesCollection(session).Insert(docs...)
	if err != nil {
		return 0, fmt.Errorf("writing samples: %v", err)
	}
	return len(docs), nil
}

/*
Read retrieves a dataset with the given features and label from the
default database for the given MongoDB session. It returns an error
if a stored sample misses a value or holds one not available for its
feature.
*/
func Read(ctx context.Context, session *mgo.Session, features []*feature.Feature, label *feature.Feature) (*dataset.Dataset, error) {
	err := validateFieldNames(features, label)
	if err != nil {
		return nil, err
	}
	var x [][]float64
	var y []int
	var doc bson.M
	iter := samplesCollection(session).Find(nil).Iter()
	defer iter.Close()
	for i := 0; iter.Next(&doc); i++ {
		row := make([]float64, len(features))
		for j, f := range features {
			row[j], err = parseFieldValue(doc, f, i)
			if err != nil {
				return nil, err
			}
		}
		class, err := parseFieldValue(doc, label, i)
		if err != nil {
			return nil, err
		}
		x = append(x, row)
		y = append(y, int(class))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("reading samples: %v", err)
	}
	return dataset.New(features, label, x, y)
}

/*
EnsureIndexes ensures the samples collection on the default database
for the given MongoDB session has an index per given feature.
*/
func EnsureIndexes(ctx context.Context, session *mgo.Session, features []*feature.Feature) error {
	err := validateFieldNames(features, nil)
	if err != nil {
		return err
	}
	for _, f := range features {
		index := mgo.Index{
			Key:        []string{f.Name()},
			Background: true,
			Sparse:     true,
		}
		err := samplesCollection(session).EnsureIndex(index)
		if err != nil {
			return fmt.Errorf("ensuring index for feature %s: %v", f.Name(), err)
		}
	}
	return nil
}

func parseFieldValue(doc bson.M, f *feature.Feature, i int) (float64, error) {
	v, ok := doc[f.Name()]
	if !ok {
		return 0, fmt.Errorf("sample %d misses a value for feature %s", i, f.Name())
	}
	if f.Continuous() {
		switch value := v.(type) {
		case float64:
			return value, nil
		case int:
			return float64(value), nil
		case int64:
			return float64(value), nil
		}
		return 0, fmt.Errorf("sample %d has a %T instead of a number for feature %s", i, v, f.Name())
	}
	value, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("sample %d has a %T instead of a string for feature %s", i, v, f.Name())
	}
	class, ok := f.ClassIndex(value)
	if !ok {
		return 0, fmt.Errorf("sample %d has unknown value %q for feature %s", i, value, f.Name())
	}
	return float64(class), nil
}

func validateFieldNames(features []*feature.Feature, label *feature.Feature) error {
	names := feature.Names(features)
	if label != nil {
		names = append(names, label.Name())
	}
	for _, name := range names {
		if name == "_id" {
			return fmt.Errorf("invalid feature name %q: reserved collection field", "_id")
		}
		if strings.ContainsAny(name, ".$") {
			return fmt.Errorf("invalid feature name %q: contains reserved characters %q or %q", name, ".", "$")
		}
	}
	return nil
}

func samplesCollection(session *mgo.Session) *mgo.Collection {
	return session.DB("").C(samplesCollectionName)
}
