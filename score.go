package graft

/*
MacroF1 takes two label sequences of equal length and the number of
classes and returns their macro-averaged F1 agreement, a value in
[0, 1]. The F1 score of each class is the harmonic mean of precision
and recall of that class, taking the first sequence as reference; the
macro average is taken over the classes present in either sequence,
so the metric is class-balanced. Two empty sequences score 0.
*/
func MacroF1(reference, predicted []int, classes int) float64 {
	if len(reference) == 0 || len(reference) != len(predicted) {
		return 0
	}
	truePos := make([]float64, classes)
	refCount := make([]float64, classes)
	predCount := make([]float64, classes)
	for i, r := range reference {
		p := predicted[i]
		if r < 0 || r >= classes || p < 0 || p >= classes {
			continue
		}
		refCount[r]++
		predCount[p]++
		if r == p {
			truePos[r]++
		}
	}
	var sum float64
	var present int
	for c := 0; c < classes; c++ {
		if refCount[c] == 0 && predCount[c] == 0 {
			continue
		}
		present++
		denom := refCount[c] + predCount[c]
		if denom == 0 {
			continue
		}
		sum += 2 * truePos[c] / denom
	}
	if present == 0 {
		return 0
	}
	return sum / float64(present)
}

/*
Accuracy takes two label sequences of equal length and returns the
fraction of positions on which they agree.
*/
func Accuracy(reference, predicted []int) float64 {
	if len(reference) == 0 || len(reference) != len(predicted) {
		return 0
	}
	var agree float64
	for i, r := range reference {
		if r == predicted[i] {
			agree++
		}
	}
	return agree / float64(len(reference))
}
