// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"encoding/xml"
)

// FileCoverage is one file's coverage row within a parsed CoverageData.
type FileCoverage struct {
	FilePath           string
	TotalStatements    int
	CoveredStatements  int
	CoveragePercentage float64
	MissingLines       []int
}

// CoverageData is the result of parsing a Cobertura-like XML report
// (spec §4.2.3). TotalCoverage is always recomputed from the per-file
// totals; any overall attribute on the XML's root <coverage> element is
// ignored so the invariant in spec §8.1.4 cannot be violated by a stale
// tool-reported aggregate.
type CoverageData struct {
	TotalCoverage     float64
	FilesAnalyzed     int
	TotalStatements   int
	CoveredStatements int
	PerFile           []FileCoverage
}

type coberturaDoc struct {
	XMLName  xml.Name `xml:"coverage"`
	Packages struct {
		Package []struct {
			Classes struct {
				Class []struct {
					Filename string `xml:"filename,attr"`
					Lines    struct {
						Line []struct {
							Number int `xml:"number,attr"`
							Hits   int `xml:"hits,attr"`
						} `xml:"line"`
					} `xml:"lines"`
				} `xml:"class"`
			} `xml:"classes"`
		} `xml:"package"`
	} `xml:"packages"`
}

// ParseCobertura parses a Cobertura-like coverage XML document.
func ParseCobertura(data []byte) (*CoverageData, error) {
	var doc coberturaDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, newSyntaxError(0, err.Error())
	}
	if len(doc.Packages.Package) == 0 {
		return nil, newUnknownFormatError("missing <packages><package> element")
	}

	byFile := map[string]*FileCoverage{}
	var order []string

	for _, pkg := range doc.Packages.Package {
		for _, cls := range pkg.Classes.Class {
			if cls.Filename == "" {
				return nil, newIncompleteError("class element missing filename attribute")
			}
			fc, ok := byFile[cls.Filename]
			if !ok {
				fc = &FileCoverage{FilePath: normalizePath(cls.Filename)}
				byFile[cls.Filename] = fc
				order = append(order, cls.Filename)
			}
			for _, ln := range cls.Lines.Line {
				fc.TotalStatements++
				if ln.Hits > 0 {
					fc.CoveredStatements++
				} else {
					fc.MissingLines = append(fc.MissingLines, ln.Number)
				}
			}
		}
	}

	result := &CoverageData{}
	for _, key := range order {
		fc := byFile[key]
		if fc.TotalStatements > 0 {
			fc.CoveragePercentage = 100 * float64(fc.CoveredStatements) / float64(fc.TotalStatements)
		}
		result.TotalStatements += fc.TotalStatements
		result.CoveredStatements += fc.CoveredStatements
		result.PerFile = append(result.PerFile, *fc)
	}
	result.FilesAnalyzed = len(result.PerFile)
	if result.TotalStatements > 0 {
		result.TotalCoverage = 100 * float64(result.CoveredStatements) / float64(result.TotalStatements)
	}
	return result, nil
}

// CoverageRegression is one file whose coverage dropped by at least a
// threshold between baseline and current.
type CoverageRegression struct {
	FilePath string
	Baseline float64
	Current  float64
	Drop     float64
}

// Diff returns, for every file present in both current and baseline, the
// signed change in coverage percentage (positive means improved). Files
// present in only one side are ignored: Diff only compares like-for-like.
func Diff(current, baseline *CoverageData) map[string]float64 {
	baseByFile := map[string]float64{}
	for _, f := range baseline.PerFile {
		baseByFile[f.FilePath] = f.CoveragePercentage
	}
	out := map[string]float64{}
	for _, f := range current.PerFile {
		if b, ok := baseByFile[f.FilePath]; ok {
			out[f.FilePath] = f.CoveragePercentage - b
		}
	}
	return out
}

// Regressions returns every file whose coverage dropped by at least
// thresholdPercent between baseline and current, sorted by drop descending.
func Regressions(current, baseline *CoverageData, thresholdPercent float64) []CoverageRegression {
	baseByFile := map[string]float64{}
	for _, f := range baseline.PerFile {
		baseByFile[f.FilePath] = f.CoveragePercentage
	}

	var out []CoverageRegression
	for _, f := range current.PerFile {
		b, ok := baseByFile[f.FilePath]
		if !ok {
			continue
		}
		drop := b - f.CoveragePercentage
		if drop >= thresholdPercent {
			out = append(out, CoverageRegression{
				FilePath: f.FilePath,
				Baseline: b,
				Current:  f.CoveragePercentage,
				Drop:     drop,
			})
		}
	}
	sortRegressionsByDropDesc(out)
	return out
}

func sortRegressionsByDropDesc(regressions []CoverageRegression) {
	for i := 1; i < len(regressions); i++ {
		for j := i; j > 0 && regressions[j].Drop > regressions[j-1].Drop; j-- {
			regressions[j], regressions[j-1] = regressions[j-1], regressions[j]
		}
	}
}

