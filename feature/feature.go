package feature

import "fmt"

/*
Feature represents a property of the samples in a dataset: a named
column. Continuous features take float64 values; discrete features
can only take a value among a finite set of strings. A dataset's
label is a discrete feature whose available values are the classes
to predict.
*/
type Feature struct {
	name   string
	values []string
}

/*
NewContinuous takes a name string and returns a continuous feature
with the given name.
*/
func NewContinuous(name string) *Feature {
	return &Feature{name: name}
}

/*
NewDiscrete takes a name string and a slice of available value
strings and returns a discrete feature with the given name and
available values.
*/
func NewDiscrete(name string, values []string) *Feature {
	return &Feature{name: name, values: values}
}

/*
Name returns a string with the name of the feature
*/
func (f *Feature) Name() string {
	return f.name
}

/*
Continuous returns whether the feature takes float64 values instead
of values from a closed set.
*/
func (f *Feature) Continuous() bool {
	return f.values == nil
}

/*
Values returns a string slice with the values available for the
feature, nil for continuous features.
*/
func (f *Feature) Values() []string {
	return f.values
}

/*
ClassIndex takes a value string and returns the index of that value
among the feature's available values and true, or 0 and false if the
value is not available for the feature.
*/
func (f *Feature) ClassIndex(value string) (int, bool) {
	for i, v := range f.values {
		if v == value {
			return i, true
		}
	}
	return 0, false
}

/*
Class returns the available value with the given index, or a string
with the index itself if it is out of range. It is the inverse of
ClassIndex for in-range indexes.
*/
func (f *Feature) Class(i int) string {
	if i < 0 || i >= len(f.values) {
		return fmt.Sprintf("%d", i)
	}
	return f.values[i]
}

/*
Valid receives an interface value and returns a boolean and an error.
For continuous features the value must be a float64, for discrete
features a string among the available values. When the value is not
valid the returned error describes the reason.
*/
func (f *Feature) Valid(value interface{}) (bool, error) {
	if value == nil {
		return true, nil
	}
	if f.Continuous() {
		if _, ok := value.(float64); !ok {
			return false, fmt.Errorf("continuous feature %s expects float64 value, got %T value", f.name, value)
		}
		return true, nil
	}
	vs, ok := value.(string)
	if !ok {
		return false, fmt.Errorf("discrete feature %s expects string value, got %T value", f.name, value)
	}
	if _, ok := f.ClassIndex(vs); !ok {
		return false, fmt.Errorf("discrete feature %s got unknown value %s", f.name, vs)
	}
	return true, nil
}

func (f *Feature) String() string {
	return f.name
}

/*
Names takes a slice of features and returns a slice with their names
in the same order.
*/
func Names(features []*Feature) []string {
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = f.Name()
	}
	return names
}

/*
Select takes a slice of features and a name and returns the feature
with the given name and the slice with that feature removed, or an
error if no feature has the name.
*/
func Select(features []*Feature, name string) (*Feature, []*Feature, error) {
	for i, f := range features {
		if f.Name() == name {
			rest := make([]*Feature, 0, len(features)-1)
			rest = append(rest, features[:i]...)
			rest = append(rest, features[i+1:]...)
			return f, rest, nil
		}
	}
	return nil, nil, fmt.Errorf("feature %q is not defined", name)
}
