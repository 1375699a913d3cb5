package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProfileYAML = `
personal_info:
  name: Noah Shaw
  title: Senior Product Manager
  tagline: Product leader
  location: San Francisco Bay Area
bios:
  short: Product leader with 10+ years of experience.
  medium: Product leader with 10+ years of experience across data science and marketplaces.
employment:
  - company: Uber
    role: Senior Product Manager, Marketplace
    start_date: "2022"
    end_date: Present
    description: Leading product strategy for delivery logistics.
    highlights:
      - Driving AI/ML initiatives
  - company: Ghost Autonomy
    role: Product Manager
    start_date: "2019"
    end_date: "2022"
    description: Led the human-machine interface for autonomous driving.
    highlights:
      - Public road deployment
education:
  - institution: Northwestern University
    degree: BS
    field: Industrial Engineering
    start_date: "2010"
    end_date: "2014"
skills:
  - category: Product
    items: [roadmapping, experimentation]
`

func writeProfile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeProfile(t, t.TempDir(), testProfileYAML)

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Noah Shaw", p.PersonalInfo.Name)
	require.Len(t, p.Employment, 2)
	assert.Equal(t, "Uber", p.Employment[0].Company)
	assert.Equal(t, "Present", p.Employment[0].EndDate)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	path := writeProfile(t, dir, "bios: {short: x}")
	_, err = Load(path)
	assert.ErrorContains(t, err, "personal_info.name")
}

func TestFullContext(t *testing.T) {
	path := writeProfile(t, t.TempDir(), testProfileYAML)
	p, err := Load(path)
	require.NoError(t, err)

	ctx := p.FullContext()
	assert.Contains(t, ctx, "Name: Noah Shaw")
	assert.Contains(t, ctx, "Senior Product Manager, Marketplace at Uber (2022-Present)")
	assert.Contains(t, ctx, "BS in Industrial Engineering from Northwestern University")
	assert.Contains(t, ctx, "Product: roadmapping, experimentation")
}

func TestSearch(t *testing.T) {
	path := writeProfile(t, t.TempDir(), testProfileYAML)
	p, err := Load(path)
	require.NoError(t, err)

	got := p.Search("what did he do at uber?")
	assert.Contains(t, got, "Uber")
	assert.NotContains(t, got, "Ghost Autonomy")

	got = p.Search("where did he go to college?")
	assert.Contains(t, got, "Northwestern University")

	assert.Empty(t, p.Search("favorite pizza topping"))
}

func TestStore_HotReload(t *testing.T) {
	dir := t.TempDir()
	path := writeProfile(t, dir, testProfileYAML)

	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, "Noah Shaw", store.Get().PersonalInfo.Name)

	updated := "personal_info:\n  name: Someone Else\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	require.Eventually(t, func() bool {
		return store.Get().PersonalInfo.Name == "Someone Else"
	}, 3*time.Second, 50*time.Millisecond)
}

func TestStore_KeepsLastGoodOnBrokenEdit(t *testing.T) {
	dir := t.TempDir()
	path := writeProfile(t, dir, testProfileYAML)

	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, os.WriteFile(path, []byte("{{{not yaml"), 0o644))

	// Give the watcher a chance to fire; the profile must survive.
	time.Sleep(time.Second)
	assert.Equal(t, "Noah Shaw", store.Get().PersonalInfo.Name)
}
