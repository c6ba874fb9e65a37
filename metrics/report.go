package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

const (
	defaultFixedDecimal = 3
	defaultLanguage     = "en"
)

// Report label keys.
const (
	KeyTotalInstances        = "totalInstances"
	KeyCorrectlyClassified   = "totalCorrectlyClassified"
	KeyIncorrectlyClassified = "totalIncorrectlyClassified"
	KeyUnclassified          = "totalUnClassified"
	KeyAccuracy              = "acc"
	KeyPrecision             = "prec"
	KeyRecall                = "rec"
	KeyFMeasure              = "fm"
	KeyClassifiedAs          = "firstThTd"
	KeyTitleDetail           = "titleDetail"
	KeyTitleMatrix           = "titleCM"
	KeyClass                 = "labelClass"
	KeyWeightedAvg           = "labelWAvg"
)

var regionalOptions = map[string]map[string]string{
	"en": {
		KeyTotalInstances:        "Total Number of Instances",
		KeyCorrectlyClassified:   "Correctly Classified Instances",
		KeyIncorrectlyClassified: "Incorrectly Classified Instances",
		KeyUnclassified:          "UnClassified Instances",
		KeyAccuracy:              "Accuracy",
		KeyPrecision:             "Precision",
		KeyRecall:                "Recall",
		KeyFMeasure:              "F-Measure",
		KeyClassifiedAs:          "Classified as",
		KeyTitleDetail:           "Detailed by Class",
		KeyTitleMatrix:           "Confusion Matrix",
		KeyClass:                 "Class",
		KeyWeightedAvg:           "Weighted Avg.",
	},
	"pt": {
		KeyTotalInstances:        "Total instâncias de teste",
		KeyCorrectlyClassified:   "Instâncias corretamente classificadas",
		KeyIncorrectlyClassified: "Instâncias incorretamente classificadas",
		KeyUnclassified:          "Instâncias não classificadas",
		KeyAccuracy:              "Accurácia",
		KeyPrecision:             "Precisão",
		KeyRecall:                "Sensibilidade",
		KeyFMeasure:              "Medida-F",
		KeyClassifiedAs:          "Real/Classificado",
		KeyTitleDetail:           "Detalhe por classe",
		KeyTitleMatrix:           "Matriz de confusão",
		KeyClass:                 "Classe",
		KeyWeightedAvg:           "Média pond.",
	},
}

func copyRegional() map[string]map[string]string {
	out := make(map[string]map[string]string, len(regionalOptions))
	for lang, values := range regionalOptions {
		m := make(map[string]string, len(values))
		for k, v := range values {
			m[k] = v
		}
		out[lang] = m
	}
	return out
}

// SetLanguage selects the report language. values, when given, extend an
// existing table or define a new one. Selecting an unknown language
// without values fails.
func (cm *ConfusionMatrix) SetLanguage(lang string, values map[string]string) error {
	if values != nil {
		table, ok := cm.regional[lang]
		if !ok {
			table = make(map[string]string, len(values))
			cm.regional[lang] = table
		}
		for k, v := range values {
			table[k] = v
		}
	}
	if _, ok := cm.regional[lang]; !ok {
		langs := make([]string, 0, len(cm.regional))
		for l := range cm.regional {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		return errors.NewValidationError("language",
			"undefined language, try "+strings.Join(langs, ", "), lang)
	}
	cm.language = lang
	return nil
}

// Language returns the selected report language.
func (cm *ConfusionMatrix) Language() string { return cm.language }

// SetFixedDecimal sets the number of decimals in formatted values.
func (cm *ConfusionMatrix) SetFixedDecimal(d int) error {
	if d < 0 {
		return errors.NewValidationError("decimal", "must be non-negative", d)
	}
	cm.fixed = int32(d)
	return nil
}

// Format rounds v to the matrix's decimal places.
func (cm *ConfusionMatrix) Format(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(cm.fixed)
}

func (cm *ConfusionMatrix) text(key string) string {
	if v, ok := cm.regional[cm.language][key]; ok {
		return v
	}
	return regionalOptions[defaultLanguage][key]
}

// Table returns the per-class detail table: a header row, one row per
// class and a final weighted-average row.
func (cm *ConfusionMatrix) Table() [][]string {
	cm.Calculate()
	rows := [][]string{{cm.text(KeyClass), cm.text(KeyPrecision), cm.text(KeyRecall), cm.text(KeyFMeasure)}}
	for _, label := range cm.labels {
		m := cm.metrics[label]
		rows = append(rows, []string{label, cm.Format(m.Precision), cm.Format(m.Recall), cm.Format(m.FMeasure)})
	}
	w := cm.weighted
	return append(rows, []string{cm.text(KeyWeightedAvg), cm.Format(w.Precision), cm.Format(w.Recall), cm.Format(w.FMeasure)})
}

// MatrixTable returns the counts with a header row of predicted labels
// and the true label leading each row.
func (cm *ConfusionMatrix) MatrixTable() [][]string {
	header := append([]string{cm.text(KeyClassifiedAs)}, cm.labels...)
	rows := [][]string{header}
	for i, label := range cm.labels {
		row := []string{label}
		for _, c := range cm.cells[i] {
			row = append(row, strconv.Itoa(c))
		}
		rows = append(rows, row)
	}
	return rows
}

// String renders the plain-text report: summary counts, per-class
// detail and the matrix itself.
func (cm *ConfusionMatrix) String() string {
	cm.Calculate()
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", cm.text(KeyAccuracy), cm.Format(cm.accuracy))
	fmt.Fprintf(&b, "%s: %d\n", cm.text(KeyCorrectlyClassified), cm.correct)
	fmt.Fprintf(&b, "%s: %d\n", cm.text(KeyIncorrectlyClassified), cm.incorrect)
	if cm.unclassified > 0 {
		fmt.Fprintf(&b, "%s: %d\n", cm.text(KeyUnclassified), cm.unclassified)
	}
	fmt.Fprintf(&b, "%s: %d\n\n", cm.text(KeyTotalInstances), cm.Total())

	fmt.Fprintf(&b, "%s\n", cm.text(KeyTitleDetail))
	writeAligned(&b, cm.Table())
	fmt.Fprintf(&b, "\n%s\n", cm.text(KeyTitleMatrix))
	writeAligned(&b, cm.MatrixTable())
	return b.String()
}

func writeAligned(b *strings.Builder, rows [][]string) {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if n := len([]rune(cell)); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for _, row := range rows {
		var line strings.Builder
		for i, cell := range row {
			if i > 0 {
				line.WriteString("  ")
			}
			line.WriteString(cell)
			line.WriteString(strings.Repeat(" ", widths[i]-len([]rune(cell))))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")
	}
}
