package stock_rotation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFamily(t *testing.T) {
	families := DefaultFamilyTable()

	cases := []struct {
		text   string
		family string
	}{
		{"DERMO-ACNE", "DERMO"},
		{" dermo - hidratantes", "DERMO"},
		{"DIET-PROTEINAS", "DIETETICA"},
		{"DIETSOE-BARRITAS", "DIET SOE"},
		{"INFANSOE-PAÑALES", "INFANTIL SOE"},
		{"INFAN-CHUPETES", "INFANTIL"},
		{"ESPECSR-GENERAL", "ESPECIALIDAD"},
		{"FITOTERAPIA-SUEÑO", "FITOTERAPIA"},
		{"HIG-VARIOS", "HIG.BUCAL"},
		{"XYZQ-FOO", FamilyOther},
		{"-SIN PREFIJO", FamilyOther},
		{"", FamilyUnclassified},
		{"   ", FamilyUnclassified},
	}

	for _, tc := range cases {
		family, _ := families.Resolve(tc.text)
		assert.Equal(t, tc.family, family, "text=%q", tc.text)
	}
}

func TestResolveFamilyKeepsSubfamilyText(t *testing.T) {
	families := DefaultFamilyTable()

	_, sub := families.Resolve("DERMO-ACNE")
	assert.Equal(t, "DERMO-ACNE", sub)

	_, sub = families.Resolve("")
	assert.Equal(t, FamilyUnclassified, sub)
}

func TestResolveFamilyIsIdempotent(t *testing.T) {
	families := DefaultFamilyTable()
	for _, text := range []string{"SOL-FACIAL", "ORTOSOE-RODILLA", "ZZ-1", ""} {
		f1, s1 := families.Resolve(text)
		f2, s2 := families.Resolve(text)
		assert.Equal(t, f1, f2)
		assert.Equal(t, s1, s2)
	}
}

func TestLoadFamilyTableFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "families.yaml")
	doc := "families:\n  - prefix: cosm\n    family: COSMETICA\n  - prefix: VET\n    family: VETERINARIA\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	families, err := LoadFamilyTable(path)
	require.NoError(t, err)

	family, _ := families.Resolve("COSM-LABIOS")
	assert.Equal(t, "COSMETICA", family)
	family, _ = families.Resolve("DERMO-ACNE")
	assert.Equal(t, FamilyOther, family)
	assert.Len(t, families.Entries(), 2)
	assert.NotEqual(t, DefaultFamilyTable().Fingerprint(), families.Fingerprint())
}

func TestLoadFamilyTableDefaultsAndErrors(t *testing.T) {
	families, err := LoadFamilyTable("")
	require.NoError(t, err)
	assert.Len(t, families.Entries(), 32)

	_, err = ParseFamilyTable([]byte("families: []\n"))
	assert.Error(t, err)

	_, err = LoadFamilyTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFamilyTableYAMLRoundTrip(t *testing.T) {
	data, err := DefaultFamilyTable().YAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "prefix: ESPEC")

	parsed, err := ParseFamilyTable(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultFamilyTable().Fingerprint(), parsed.Fingerprint())
}
