//go:build contract

package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fieldcheck/internal/contract"
	"fieldcheck/internal/models"
)

// testdataDir is the path to the testdata directory.
const testdataDir = "testdata"

// loadFixture reads a recorded response from testdata.
func loadFixture(t *testing.T, path string) []byte {
	t.Helper()

	fullPath := filepath.Join(testdataDir, path)
	data, err := os.ReadFile(fullPath)
	require.NoError(t, err, "failed to read fixture %s", fullPath)

	return data
}

// newValidator builds a validator over the full model registry.
func newValidator(t *testing.T, policy contract.OverridePolicy) *contract.Validator {
	t.Helper()

	registry, err := models.NewRegistry(contract.WithOverridePolicy(policy))
	require.NoError(t, err, "failed to build registry")

	return contract.NewValidator(registry)
}

var policies = []contract.OverridePolicy{contract.OverrideMostDerived, contract.OverrideKeepAll}

// validateTree validates m and every model reachable from it: a submission's
// media and comments, a listing's children, and a comment's replies. Reports
// are returned in depth-first order.
func validateTree(t *testing.T, v *contract.Validator, m contract.Model) []contract.Report {
	t.Helper()

	reports := []contract.Report{v.Validate(m)}

	switch m := m.(type) {
	case *models.Submission:
		if o := m.OEmbedMedia(); o != nil {
			reports = append(reports, validateTree(t, v, o)...)
		}
		if e := m.EmbeddedMedia(); e != nil {
			reports = append(reports, validateTree(t, v, e)...)
		}
		if l := m.Comments(); l != nil {
			reports = append(reports, validateTree(t, v, l)...)
		}
	case *models.Listing:
		children, err := m.Children()
		require.NoError(t, err, "failed to decode listing children")
		for _, child := range children {
			reports = append(reports, validateTree(t, v, child)...)
		}
	case *models.Comment:
		if l := m.Replies(); l != nil {
			reports = append(reports, validateTree(t, v, l)...)
		}
	}

	return reports
}

// reportTypes lists the validated type of each report.
func reportTypes(reports []contract.Report) []contract.TypeID {
	types := make([]contract.TypeID, len(reports))
	for i, r := range reports {
		types[i] = r.Model
	}
	return types
}

// firstFailure returns the first failing report, or nil.
func firstFailure(reports []contract.Report) *contract.Failure {
	for _, r := range reports {
		if r.Failure != nil {
			return r.Failure
		}
	}
	return nil
}
