package curate_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/model"
	"github.com/askiada/go-curate/pkg/curate/steps"
)

func resultFixture(t *testing.T) *curate.ResultSet {
	t.Helper()
	w, err := curate.New(testCatalog(), []curate.Step{
		steps.NumericLabel(), steps.FlagBoron(), steps.RemoveStereochem(),
	}, curate.WithName("fixture"), curate.WithHistory(true))
	require.NoError(t, err)
	res, err := w.Curate(context.Background(), []curate.Input{
		{ID: "a", Smiles: "C[C@@H](O)N", Label: model.TextLabel("1.5")},
		{ID: "b", Smiles: "OB(O)C", Label: model.TextLabel("2")},
		{ID: "c", Smiles: "CC", Label: model.TextLabel("oops")},
		{ID: "d", Smiles: "C(", Label: model.MissingLabel()},
	})
	require.NoError(t, err)
	return res
}

func TestTrail(t *testing.T) {
	t.Parallel()

	res := resultFixture(t)
	trail := res.Record(2).Trail()
	require.Len(t, trail, 2)
	assert.False(t, trail[0].Issue)
	assert.Equal(t, steps.NameRemoveStereochem, trail[0].Step)
	assert.True(t, trail[1].Issue)
	assert.Equal(t, steps.NameNumericLabel, trail[1].Step)
	assert.Equal(t, 3, trail[1].Index)

	assert.Len(t, res.Record(0).Trail(), 2)
	assert.Equal(t, []curate.TrailEntry{{Annotation: model.Annotation{Index: 0, Step: model.LoadStage, Text: curate.LoadIssue}, Issue: true}}, res.Record(3).Trail())
}

func TestWriteTSV(t *testing.T) {
	t.Parallel()

	res := resultFixture(t)
	var buf bytes.Buffer
	require.NoError(t, res.WriteTSV(&buf))
	assert.False(t, strings.HasPrefix(buf.String(), curate.UntrustedTSVMarker))

	r := csv.NewReader(&buf)
	r.Comma = '\t'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"position", "id", "input", "smiles", "label", "passed", "issues", "notes"}, rows[0])
	assert.Equal(t, []string{"0", "a", "C[C@@H](O)N", canon("CC(O)N")[0], "1.5", "true", "", "RemoveStereochem: stereochemistry removed; NumericLabel: label made numeric"}, rows[1])
	assert.Equal(t, "false", rows[2][5])
	assert.Equal(t, "FlagBoron: compound has boron", rows[2][6])
	assert.Equal(t, []string{"3", "d", "C(", "", "", "false", "Load: " + curate.LoadIssue, ""}, rows[4])
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	res := resultFixture(t)
	var buf bytes.Buffer
	require.NoError(t, res.WriteJSON(&buf))

	var doc struct {
		RunID        string `json:"run_id"`
		WorkflowHash string `json:"workflow_hash"`
		Trust        string `json:"trust"`
		Records      []struct {
			ID      string   `json:"id"`
			Label   any      `json:"label"`
			Passed  bool     `json:"passed"`
			History []string `json:"history"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, res.RunID(), doc.RunID)
	assert.Equal(t, res.Workflow().WorkflowHash(), doc.WorkflowHash)
	assert.Equal(t, "trusted", doc.Trust)
	require.Len(t, doc.Records, 4)
	assert.Equal(t, 1.5, doc.Records[0].Label)
	assert.Equal(t, "oops", doc.Records[2].Label)
	assert.Nil(t, doc.Records[3].Label)
	assert.Equal(t, []string{canon("C[C@@H](O)N")[0], canon("CC(O)N")[0]}, doc.Records[0].History)
	assert.Empty(t, doc.Records[3].History)
}

func TestReport(t *testing.T) {
	t.Parallel()

	res := resultFixture(t)
	report := res.Report()
	assert.False(t, strings.HasPrefix(report, curate.UntrustedBanner))
	for _, want := range []string{
		"Name: fixture",
		"Workflow: Load -> RemoveStereochem -> FlagBoron -> NumericLabel",
		"Workflow hash: " + res.Workflow().WorkflowHash(),
		"Trust: trusted",
		"History tracking: true",
		"4 records: 1 passed, 3 failed",
		"[0] a PASSED " + canon("CC(O)N")[0] + " label=1.5",
		"[3] d FAILED (input \"C(\")",
		"    issue step 2 (FlagBoron): compound has boron",
		"    note  step 1 (RemoveStereochem): stereochemistry removed",
	} {
		assert.Contains(t, report, want)
	}
	assert.NotContains(t, report, "(batch)")
	assert.NotContains(t, report, res.RunID())

	var buf bytes.Buffer
	require.NoError(t, res.WriteReport(&buf))
	assert.Equal(t, report, buf.String())
}

func TestResultAccessors(t *testing.T) {
	t.Parallel()

	res := resultFixture(t)
	assert.Equal(t, 4, res.Len())
	assert.Equal(t, 1, res.NumPassed())
	assert.Equal(t, 3, res.NumFailed())
	assert.Equal(t, []string{canon("CC(O)N")[0]}, res.PassingSmiles())
	assert.Equal(t, curate.Trusted, res.Trust())
	assert.NotEmpty(t, res.RunID())
	assert.Len(t, res.Records(), 4)
	assert.Equal(t, []int{1, 0, 1, 1}, res.IssueCounts())
	assert.Equal(t, []int{0, 3, 0, 1}, res.NoteCounts())

	label := res.Record(0).Label()
	assert.Equal(t, model.LabelNumber, label.Kind)
	assert.Equal(t, 1.5, label.Number)
	assert.Equal(t, "C[C@@H](O)N", res.Record(0).Input())
	assert.Equal(t, 0, res.Record(0).Position())
}
