package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artstat/leads-cli/internal/config"
	"github.com/artstat/leads-cli/internal/csvio"
	"github.com/artstat/leads-cli/internal/model"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	prev := cfg
	cfg = &config.Config{
		Clients: config.ClientsConfig{
			Map:         map[string]int64{"artroyal_detailing": 1, "second_client": 2},
			DefaultSlug: "artroyal_detailing",
		},
	}
	t.Cleanup(func() { cfg = prev })
}

func TestResolveClient(t *testing.T) {
	setTestConfig(t)

	id, slug, err := resolveClient("")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "artroyal_detailing", slug)

	id, slug, err = resolveClient("second_client")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
	assert.Equal(t, "second_client", slug)

	_, _, err = resolveClient("nobody")
	require.Error(t, err)
}

func TestWriteCSVFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "statuses.csv")

	row := model.StatusRow{
		ClientID: 1, ClientSlug: "artroyal_detailing",
		PipelineID: 776221, PipelineName: "Воронка",
		StatusID: 142, StatusName: "Успешно реализовано",
		IsWon: true, UpdatedAt: "2025-06-01 12:00:00",
	}
	require.NoError(t, writeCSVFile(path, model.StatusHeader, [][]string{row.Row()}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	header, records, err := csvio.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, model.StatusHeader, header)
	require.Len(t, records, 1)

	got := model.StatusRowFromRecord(header, records[0])
	assert.Equal(t, row, got)
}
