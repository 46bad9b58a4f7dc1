// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTestReport(t *testing.T) {
	input := `{
		"tests": [
			{"nodeid": "a/t::t1", "outcome": "passed", "call": {"duration": 0.10}},
			{"nodeid": "a/t::t2", "outcome": "failed", "call": {"duration": 0.20}},
			{"nodeid": "a/t::t3", "outcome": "skipped", "call": {"duration": 0.00}}
		]
	}`

	results, err := ParseTestReport([]byte(input))
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, TestResult{NodeID: "a/t::t1", Outcome: OutcomePassed, DurationSeconds: 0.10}, results[0])
	require.Equal(t, TestResult{NodeID: "a/t::t2", Outcome: OutcomeFailed, DurationSeconds: 0.20}, results[1])
	require.Equal(t, OutcomeSkipped, results[2].Outcome)
}

func TestParseTestReportUnknownOutcomeMapsToError(t *testing.T) {
	input := `{"tests": [{"nodeid": "a/t::t1", "outcome": "xpassed"}]}`
	results, err := ParseTestReport([]byte(input))
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, OutcomeError, results[0].Outcome)
}

func TestParseTestReportMissingNodeID(t *testing.T) {
	input := `{"tests": [{"outcome": "passed"}]}`
	_, err := ParseTestReport([]byte(input))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, ParseErrorIncomplete, pe.Kind)
}

func TestParseTestReportMissingTestsArray(t *testing.T) {
	_, err := ParseTestReport([]byte(`{}`))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, ParseErrorUnknownFmt, pe.Kind)
}

func TestParseTestReportSyntaxError(t *testing.T) {
	_, err := ParseTestReport([]byte(`not json`))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, ParseErrorSyntax, pe.Kind)
}

func TestParseTestReportFallsBackToTopLevelDuration(t *testing.T) {
	input := `{"tests": [{"nodeid": "a/t::t1", "outcome": "passed", "duration": 0.5}]}`
	results, err := ParseTestReport([]byte(input))
	require.NoError(t, err)
	require.Equal(t, 0.5, results[0].DurationSeconds)
}
