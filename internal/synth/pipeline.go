package synth

import (
	"github.com/rs/zerolog"

	"qstrgen/internal/model"
	"qstrgen/internal/scan"
)

// Build scans files in order into one table and analyzes it.
func Build(variant model.Variant, files []string, log zerolog.Logger) (model.AnalysisResult, error) {
	table := model.NewTable()
	s := scan.NewScanner(table, scan.TagsFor(variant), log)
	if err := s.ScanFiles(files); err != nil {
		return model.AnalysisResult{}, err
	}
	return NewAnalyzer(variant, log).Analyze(table, s.Files()), nil
}
