package models

// TrainingDataset is a tabular dataset delivered by the ingestion
// collaborator for a retraining pass.
type TrainingDataset struct {
	Columns []string
	Rows    []map[string]string
}

// RequiredTrainingColumns must all be present before any model fitting
// begins; a missing column fails the retrain fast.
var RequiredTrainingColumns = []string{"amount", "merchant", "category", "location", "is_fraud"}

// HasColumn reports whether the dataset carries the named column.
func (d *TrainingDataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the required columns absent from the dataset.
func (d *TrainingDataset) MissingColumns() []string {
	var missing []string
	for _, c := range RequiredTrainingColumns {
		if !d.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}
