package taxonomy

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbpulse/pkg/contracts/domain"
)

func testTaxonomy() domain.RegionTaxonomy {
	return domain.RegionTaxonomy{
		Groups: []domain.TaxonomyGroup{
			{Name: "nation", Keywords: []string{"National"}},
			{Name: "metro", Keywords: []string{"Seoul", "Busan"}},
			{Name: "district", Keywords: []string{"Gangnam", "District X", "Seoul Gangnam"}},
		},
		FallbackGroup: "other",
	}
}

func TestClassifier_GroupFor(t *testing.T) {
	c := MustNewClassifier(testTaxonomy())

	tests := []struct {
		label string
		want  string
	}{
		{"National", "nation"},
		{"Seoul", "metro"},
		{"Gangnam", "district"},
		{"Seoul Gangnam", "district"},
		{"Seoul Mapo", "metro"},
		{"X District, City Y", "other"},
		{"District X, City Y", "district"},
		{"Jeju", "other"},
		{"seoul", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, c.GroupFor(tt.label))
		})
	}
}

func TestClassifier_ExactBeatsEarlierContainment(t *testing.T) {
	tax := domain.RegionTaxonomy{
		Groups: []domain.TaxonomyGroup{
			{Name: "short", Keywords: []string{"Gu"}},
			{Name: "long", Keywords: []string{"Jung-Gu"}},
		},
		FallbackGroup: "other",
	}
	c := MustNewClassifier(tax)

	assert.Equal(t, "long", c.GroupFor("Jung-Gu"))
	assert.Equal(t, "short", c.GroupFor("Seo-Gu"))
}

func TestClassifier_Classify(t *testing.T) {
	c := MustNewClassifier(testTaxonomy())
	labels := []string{"Seoul", "Busan", "National", "Gangnam", "Jeju", "Busan", "Seoul Mapo"}

	got := c.Classify(labels)

	assert.Equal(t, []string{"nation", "metro", "district", "other"}, got.Order)
	assert.Equal(t, []string{"Busan", "Seoul", "Seoul Mapo"}, got.Members("metro"))
	assert.Equal(t, []string{"National"}, got.Members("nation"))
	assert.Equal(t, []string{"Gangnam"}, got.Members("district"))
	assert.Equal(t, []string{"Jeju"}, got.Members("other"))

	unknown := got.Members("no-such-group")
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)
}

func TestClassifier_EveryLabelInExactlyOneGroup(t *testing.T) {
	c := MustNewClassifier(DefaultTaxonomy())
	labels := []string{
		"전국", "수도권", "서울", "강북14개구", "강남11개구", "강남구", "종로구", "중구",
		"경기", "수원 장안구", "성남시 분당구", "인천", "부산", "부산 중구", "6개광역시",
		"기타지방", "제주", "세종", "포항 북구", "Unknown Region",
	}

	got := c.Classify(labels)

	for _, label := range labels {
		count := 0
		for _, group := range got.Order {
			for _, m := range got.Members(group) {
				if m == label {
					count++
				}
			}
		}
		assert.Equal(t, 1, count, "label %q", label)
	}
}

func TestDefaultTaxonomy_Placement(t *testing.T) {
	c := MustNewClassifier(DefaultTaxonomy())

	assert.Equal(t, GroupNation, c.GroupFor("전국"))
	assert.Equal(t, GroupRegion, c.GroupFor("수도권"))
	assert.Equal(t, GroupSeoul, c.GroupFor("강남11개구"))
	assert.Equal(t, GroupSeoulGu, c.GroupFor("강남구"))
	assert.Equal(t, GroupProvince, c.GroupFor("경기"))
	assert.Equal(t, GroupGyeonggi, c.GroupFor("성남시 분당구"))
	assert.Equal(t, GroupUnclassified, c.GroupFor("포항 북구"))
}

func TestClassifier_DoesNotShareTaxonomy(t *testing.T) {
	tax := testTaxonomy()
	c := MustNewClassifier(tax)

	tax.Groups[0].Keywords[0] = "Mutated"
	assert.Equal(t, "nation", c.GroupFor("National"))

	copied := c.Taxonomy()
	copied.Groups[1].Name = "changed"
	assert.Equal(t, "metro", c.Taxonomy().Groups[1].Name)
}

func TestClassifier_ConcurrentUse(t *testing.T) {
	c := MustNewClassifier(DefaultTaxonomy())
	labels := []string{"서울", "강남구", "부산", "전국"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := c.Classify(labels)
			assert.Equal(t, []string{"강남구"}, got.Members(GroupSeoulGu))
		}()
	}
	wg.Wait()
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.RegionTaxonomy)
		wantErr string
	}{
		{name: "valid", mutate: func(*domain.RegionTaxonomy) {}},
		{name: "no fallback", mutate: func(t *domain.RegionTaxonomy) { t.FallbackGroup = "" }, wantErr: "fallback group must be named"},
		{name: "unnamed group", mutate: func(t *domain.RegionTaxonomy) { t.Groups[1].Name = " " }, wantErr: "has no name"},
		{name: "duplicate group", mutate: func(t *domain.RegionTaxonomy) { t.Groups[2].Name = "metro" }, wantErr: "defined twice"},
		{name: "blank keyword", mutate: func(t *domain.RegionTaxonomy) { t.Groups[0].Keywords = append(t.Groups[0].Keywords, "") }, wantErr: "blank keyword"},
		{name: "fallback collides", mutate: func(t *domain.RegionTaxonomy) { t.FallbackGroup = "metro" }, wantErr: "collides"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tax := testTaxonomy()
			tt.mutate(&tax)
			err := Validate(tax)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadTaxonomy(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "taxonomy.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
groups:
  - name: nation
    keywords: [National]
  - name: metro
    keywords:
      - Seoul
      - Busan
fallback_group: other
`), 0644))
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("groups:\n  - name: metro\n    keywords: [Seoul]\n"), 0644))

	tax, err := LoadTaxonomy(good)
	require.NoError(t, err)
	assert.Equal(t, []string{"nation", "metro", "other"}, tax.GroupNames())
	assert.Equal(t, []string{"Seoul", "Busan"}, tax.Groups[1].Keywords)

	_, err = LoadTaxonomy(bad)
	assert.ErrorContains(t, err, "fallback group must be named")

	_, err = LoadTaxonomy(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	def, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTaxonomy(), def)
}
