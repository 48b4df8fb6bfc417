package routes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/weatherlink/internal/actfile"
	"github.com/ngmaloney/weatherlink/internal/apperr"
	"github.com/ngmaloney/weatherlink/internal/models"
)

const trkLegacy = `SIMISA@@@@@@@@@@JINX0r0t______

Tr_RouteFile (
	RouteID ( SOLENT )
	Name ( "Solent Coast" )
	Description ( "Southampton to Portsmouth" )
	RouteStart ( -6131 14888 0 0 )
)
`

const trkModern = `SIMISA@@@@@@@@@@JINX0r0t______

Tr_RouteFile (
	RouteID ( ALPS )
	Name ( "Alpine Pass" )
	ORTSLatitude ( 46.5 )
	ORTSLongitude ( 8.25 )
	RouteStart ( -6131 14888 0 0 )
)
`

const actTemplate = `SIMISA@@@@@@@@@@JINX0a0t______

Tr_Activity (
	Tr_Activity_Header (
		Name ( "%s" )
		PathID ( "MainLine" )
		Season ( 1 )
	)
)
`

func writeUTF16(t *testing.T, path, text string) {
	t.Helper()
	data, err := actfile.Encode(text, actfile.UTF16LE)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writeText(t *testing.T, path, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
}

func contentFixture(t *testing.T) string {
	t.Helper()
	content := t.TempDir()
	writeUTF16(t, filepath.Join(content, "ROUTES", "SOLENT", "SOLENT.trk"), trkLegacy)
	writeText(t, filepath.Join(content, "ROUTES", "ALPS", "ALPS.trk"), trkModern)
	writeText(t, filepath.Join(content, "ROUTES", "BROKEN", "BROKEN.trk"), "Tr_RouteFile ( RouteID ( X )")
	return content
}

type memCache struct {
	data map[string][]byte
	fps  map[string]string
	puts int
}

func (m *memCache) GetRoutes(path, fp string) ([]byte, bool, error) {
	if m.fps[path] != fp {
		return nil, false, nil
	}
	return m.data[path], true, nil
}

func (m *memCache) PutRoutes(path, fp string, payload []byte) error {
	m.data[path] = payload
	m.fps[path] = fp
	m.puts++
	return nil
}

func TestDiscover(t *testing.T) {
	content := contentFixture(t)

	found, err := Discover(content, nil)
	require.NoError(t, err)
	require.Len(t, found, 2)

	assert.Equal(t, "Alpine Pass", found[0].Name)
	assert.Equal(t, "ALPS", found[0].ID)
	assert.Equal(t, "Solent Coast", found[1].Name)
	assert.Equal(t, "SOLENT", found[1].ID)
	assert.Equal(t, filepath.Join(content, "ROUTES", "SOLENT"), found[1].Path)
}

func TestDiscover_NoRoutesFolder(t *testing.T) {
	_, err := Discover(t.TempDir(), nil)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestDiscoverCached(t *testing.T) {
	content := contentFixture(t)
	cache := &memCache{data: map[string][]byte{}, fps: map[string]string{}}

	first, err := DiscoverCached(content, cache, nil)
	require.NoError(t, err)
	second, err := DiscoverCached(content, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.puts)

	writeText(t, filepath.Join(content, "ROUTES", "NEW", "NEW.trk"), `Tr_RouteFile ( RouteID ( NEW ) Name ( "New Line" ) )`)
	third, err := DiscoverCached(content, cache, nil)
	require.NoError(t, err)
	assert.Len(t, third, 3)
	assert.Equal(t, 2, cache.puts)
}

func TestStartLocation(t *testing.T) {
	content := contentFixture(t)
	found, err := Discover(content, nil)
	require.NoError(t, err)

	alps, err := StartLocation(found[0])
	require.NoError(t, err)
	assert.Equal(t, models.Coordinate{Lat: 46.5, Lon: 8.25}, alps)

	solent, err := StartLocation(found[1])
	require.NoError(t, err)
	assert.InDelta(t, 50.7643139839146, solent.Lat, 1e-6)
	assert.InDelta(t, -1.2683488602882855, solent.Lon, 1e-6)
}

func TestStartLocation_Missing(t *testing.T) {
	dir := t.TempDir()
	trk := filepath.Join(dir, "X.trk")
	writeText(t, trk, `Tr_RouteFile ( RouteID ( X ) Name ( "X" ) )`)
	_, err := StartLocation(models.Route{ID: "X", TrkPath: trk})
	assert.True(t, apperr.Is(err, apperr.CodeFileStructure))
}

func TestActivities(t *testing.T) {
	route := t.TempDir()
	acts := filepath.Join(route, "ACTIVITIES")
	writeUTF16(t, filepath.Join(acts, "morning.act"), sprintf(actTemplate, "Morning Run"))
	writeUTF16(t, filepath.Join(acts, "evening.act"), sprintf(actTemplate, "Evening Freight"))
	writeUTF16(t, filepath.Join(acts, "morning.WTHLINK.20240601.act"), sprintf(actTemplate, "Morning Run [WTHLINK.20240601]"))
	writeText(t, filepath.Join(acts, "notes.txt"), "x")

	list, err := Activities(route)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "evening.act", list[0].FileName)
	assert.Equal(t, "Evening Freight", list[0].DisplayName)
	assert.False(t, list[0].HasWeather)

	assert.Equal(t, "morning.act", list[1].FileName)
	assert.True(t, list[1].HasWeather)
}
