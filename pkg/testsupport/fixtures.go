package testsupport

import (
	"embed"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-opsboard/model"
)

// SeedDate is the "today" the seed data is written around.
const SeedDate = "2025-06-01"

//go:embed testdata
var fixtures embed.FS

// Seed is the initial state of a fake backend.
type Seed struct {
	Properties   []model.Property
	Reservations []model.Reservation
	CleaningJobs []model.CleaningJob
	Tasks        []model.Task
	Activity     []model.Activity
	Occupancy    []model.OccupancyPoint
	Revenue      []model.RevenuePoint
}

// DefaultSeed returns a fresh copy of the bundled seed data: three
// properties, four reservations, four cleaning jobs and four tasks.
func DefaultSeed(t testing.TB) Seed {
	t.Helper()

	var seed Seed
	LoadFixtureJSON(t, "seed/properties.json", &seed.Properties)
	LoadFixtureJSON(t, "seed/reservations.json", &seed.Reservations)
	LoadFixtureJSON(t, "seed/cleaning.json", &seed.CleaningJobs)
	LoadFixtureJSON(t, "seed/tasks.json", &seed.Tasks)
	LoadFixtureJSON(t, "seed/activity.json", &seed.Activity)

	var trends struct {
		Occupancy []model.OccupancyPoint `json:"occupancy"`
		Revenue   []model.RevenuePoint   `json:"revenue"`
	}
	LoadFixtureJSON(t, "seed/trends.json", &trends)
	seed.Occupancy = trends.Occupancy
	seed.Revenue = trends.Revenue

	return seed
}

// LoadFixture returns the bundled fixture at name, relative to testdata.
func LoadFixture(t testing.TB, name string) []byte {
	t.Helper()

	data, err := fixtures.ReadFile(FixturePath(name))
	require.NoError(t, err, "failed to load fixture %s", name)

	return data
}

// LoadFixtureJSON loads a bundled JSON fixture and unmarshals it into dest.
func LoadFixtureJSON(t testing.TB, name string, dest any) {
	t.Helper()

	data := LoadFixture(t, name)
	require.NoError(t, json.Unmarshal(data, dest), "failed to unmarshal JSON fixture %s", name)
}

// WriteFixture writes content to name inside a fresh temporary directory and
// returns the full path. The directory is removed when the test ends.
func WriteFixture(t testing.TB, name string, content []byte) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755), "failed to create directory for %s", p)
	require.NoError(t, os.WriteFile(p, content, 0o644), "failed to write fixture %s", p)
	return p
}

// FixturePath returns the path of a bundled fixture inside the embedded
// testdata tree.
func FixturePath(name string) string {
	return path.Join("testdata", name)
}
