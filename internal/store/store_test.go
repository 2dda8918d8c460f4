package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-pipeline/constants"
	"github.com/joseph-ayodele/invoice-pipeline/internal/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "jobs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStartAndFinish(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	id, err := st.Start(ctx, "/invoices/a.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	job, err := st.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusRunning, job.Status)
	assert.Equal(t, "/invoices/a.pdf", job.InvoicePath)
	assert.Nil(t, job.FinishedAt)

	err = st.Finish(ctx, id, pipeline.JobOutcome{
		Status:       constants.JobStatusInvalid,
		RemoteJobID:  "remote-1",
		RemoteStatus: "SUCCESS",
		RawPayload:   `{"vendor_name":"Acme"}`,
		Feedback:     []string{"Missing required fields: invoice_number", "Total amount must be greater than 0"},
		Error:        "",
	})
	require.NoError(t, err)

	job, err = st.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusInvalid, job.Status)
	assert.Equal(t, "remote-1", job.RemoteJobID)
	assert.Equal(t, "Missing required fields: invoice_number\nTotal amount must be greater than 0", job.Feedback)
	require.NotNil(t, job.FinishedAt)
}

func TestFinishUnknownJob(t *testing.T) {
	st := openTestStore(t)
	err := st.Finish(context.Background(), "nope", pipeline.JobOutcome{Status: constants.JobStatusFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListNewestFirst(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for _, p := range []string{"/a.pdf", "/b.pdf", "/c.pdf"} {
		_, err := st.Start(ctx, p)
		require.NoError(t, err)
	}

	jobs, err := st.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	all, err := st.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
