package ml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"ml-audit-platform/internal/core/domain"
)

// Dataset is a preprocessed feature matrix in domain.FeatureNames order.
type Dataset struct {
	Features [][]float64
	Labels   []int
}

func (d *Dataset) Len() int { return len(d.Labels) }

// ClassCounts returns how many rows carry each label.
func (d *Dataset) ClassCounts() map[int]int {
	counts := make(map[int]int)
	for _, l := range d.Labels {
		counts[l]++
	}
	return counts
}

var titanicColumns = []string{"Survived", "Pclass", "Sex", "Age", "SibSp", "Parch", "Fare", "Embarked"}

var (
	sexCodes      = map[string]float64{"male": domain.SexMale, "female": domain.SexFemale}
	embarkedCodes = map[string]float64{"S": domain.EmbarkedSouthampton, "C": domain.EmbarkedCherbourg, "Q": domain.EmbarkedQueenstown}
)

type passengerRow struct {
	survived int
	pclass   *float64
	sex      string
	age      *float64
	sibsp    *float64
	parch    *float64
	fare     *float64
	embarked string
}

// ReadTitanicCSV parses the Kaggle Titanic training file and applies the training
// preprocessing: median Age, modal Embarked, categorical codes, remaining gaps as 0.
func ReadTitanicCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range titanicColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var rows []passengerRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := parsePassengerRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, errors.New("dataset has no rows")
	}

	return preprocess(rows), nil
}

func parsePassengerRow(record []string, cols map[string]int) (passengerRow, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var row passengerRow
	switch field("Survived") {
	case "0":
		row.survived = 0
	case "1":
		row.survived = 1
	default:
		return row, fmt.Errorf("column Survived must be 0 or 1, got %q", field("Survived"))
	}

	var err error
	if row.pclass, err = optionalFloat(field("Pclass"), "Pclass"); err != nil {
		return row, err
	}
	if row.age, err = optionalFloat(field("Age"), "Age"); err != nil {
		return row, err
	}
	if row.sibsp, err = optionalFloat(field("SibSp"), "SibSp"); err != nil {
		return row, err
	}
	if row.parch, err = optionalFloat(field("Parch"), "Parch"); err != nil {
		return row, err
	}
	if row.fare, err = optionalFloat(field("Fare"), "Fare"); err != nil {
		return row, err
	}
	row.sex = field("Sex")
	row.embarked = field("Embarked")
	return row, nil
}

func optionalFloat(s, name string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &v, nil
}

func preprocess(rows []passengerRow) *Dataset {
	ages := make([]float64, 0, len(rows))
	portCounts := make(map[string]int)
	for _, r := range rows {
		if r.age != nil {
			ages = append(ages, *r.age)
		}
		if r.embarked != "" {
			portCounts[r.embarked]++
		}
	}
	medianAge := median(ages)
	modePort := mode(portCounts)

	ds := &Dataset{
		Features: make([][]float64, len(rows)),
		Labels:   make([]int, len(rows)),
	}
	for i, r := range rows {
		age := medianAge
		if r.age != nil {
			age = *r.age
		}
		embarked := r.embarked
		if embarked == "" {
			embarked = modePort
		}
		ds.Features[i] = []float64{
			valueOr(r.pclass),
			sexCodes[r.sex],
			age,
			valueOr(r.sibsp),
			valueOr(r.parch),
			valueOr(r.fare),
			embarkedCodes[embarked],
		}
		ds.Labels[i] = r.survived
	}
	return ds
}

func valueOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// mode picks the most frequent value; ties go to the lexically smallest.
func mode(counts map[string]int) string {
	best, bestCount := "", 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}
