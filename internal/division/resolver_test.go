package division

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() []Region {
	return []Region{
		{Code: 10, Name: "Province Z", SubRegions: []SubRegion{
			{Code: 100, Name: "District Y", Localities: []Locality{
				{Code: 1000, Name: "Ward X"},
				{Code: 1001, Name: "Ward W"},
			}},
			{Code: 101, Name: "District V", Localities: []Locality{
				{Code: 1010, Name: "Ward U"},
			}},
		}},
		{Code: 20, Name: "Province T", SubRegions: []SubRegion{
			{Code: 200, Name: "District S", Localities: []Locality{
				{Code: 2000, Name: "Ward R"},
			}},
			{Code: 201, Name: "District Q"},
		}},
		{Code: 0, Name: "Province Zero"},
	}
}

func newFixture(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	r, err := New(fixture(), opts...)
	require.NoError(t, err)
	return r
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		regions []Region
		wantErr error
	}{
		{name: "empty", regions: nil, wantErr: ErrEmptyDataset},
		{
			name:    "negative region",
			regions: []Region{{Code: -1, Name: "bad"}},
			wantErr: ErrNegativeCode,
		},
		{
			name: "duplicate subregion across parents",
			regions: []Region{
				{Code: 1, SubRegions: []SubRegion{{Code: 5}}},
				{Code: 2, SubRegions: []SubRegion{{Code: 5}}},
			},
			wantErr: ErrDuplicateCode,
		},
		{
			name: "duplicate locality across subregions",
			regions: []Region{
				{Code: 1, SubRegions: []SubRegion{
					{Code: 5, Localities: []Locality{{Code: 9}}},
					{Code: 6, Localities: []Locality{{Code: 9}}},
				}},
			},
			wantErr: ErrDuplicateCode,
		},
		{
			name: "same code on different levels is fine",
			regions: []Region{
				{Code: 1, SubRegions: []SubRegion{{Code: 1, Localities: []Locality{{Code: 1}}}}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.regions)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestFindRegion(t *testing.T) {
	r := newFixture(t)

	reg, ok := r.FindRegion(C(20))
	require.True(t, ok)
	assert.Equal(t, "Province T", reg.Name)

	reg, ok = r.FindRegion(C(0))
	require.True(t, ok)
	assert.Equal(t, "Province Zero", reg.Name)

	_, ok = r.FindRegion(C(99))
	assert.False(t, ok)
	_, ok = r.FindRegion(Code{})
	assert.False(t, ok)
}

func TestFindSubRegion(t *testing.T) {
	r := newFixture(t)
	tests := []struct {
		name     string
		sub      Code
		region   Code
		wantOK   bool
		wantName string
	}{
		{name: "with matching hint", sub: C(200), region: C(20), wantOK: true, wantName: "District S"},
		{name: "without hint", sub: C(101), wantOK: true, wantName: "District V"},
		{name: "inconsistent hint falls back", sub: C(101), region: C(20), wantOK: true, wantName: "District V"},
		{name: "unknown hint falls back", sub: C(100), region: C(77), wantOK: true, wantName: "District Y"},
		{name: "absent code", region: C(10), wantOK: false},
		{name: "unknown code", sub: C(999), region: C(10), wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := r.FindSubRegion(tt.sub, tt.region)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, s.Name)
		})
	}
}

func TestFindLocality_AllCodesWithAndWithoutHints(t *testing.T) {
	r := newFixture(t)
	for _, reg := range fixture() {
		for _, sub := range reg.SubRegions {
			for _, loc := range sub.Localities {
				hints := []struct{ sub, region Code }{
					{},
					{sub: C(sub.Code)},
					{region: C(reg.Code)},
					{sub: C(sub.Code), region: C(reg.Code)},
					{sub: C(201), region: C(20)},
				}
				for _, h := range hints {
					l, ok := r.FindLocality(C(loc.Code), h.sub, h.region)
					require.True(t, ok, "locality %d hints %+v", loc.Code, h)
					assert.Equal(t, loc.Code, l.Code)
				}
			}
		}
	}
}

func TestFindLocality_Missing(t *testing.T) {
	r := newFixture(t)
	_, ok := r.FindLocality(C(4242), C(100), C(10))
	assert.False(t, ok)
	_, ok = r.FindLocality(Code{}, C(100), C(10))
	assert.False(t, ok)
	_, ok = r.FindLocality(ParseCode("abc"), Code{}, Code{})
	assert.False(t, ok)
}

func TestResolveNames(t *testing.T) {
	r := newFixture(t)

	assert.Equal(t, Names{}, r.ResolveNames(Codes{}))
	assert.True(t, r.ResolveNames(Codes{}).Empty())

	n := r.ResolveNames(Codes{Region: C(10), SubRegion: C(100), Locality: C(1000)})
	assert.Equal(t, Names{Region: "Province Z", SubRegion: "District Y", Locality: "Ward X"}, n)

	n = r.ResolveNames(Codes{Region: C(99), Locality: C(2000)})
	assert.Equal(t, Names{Locality: "Ward R"}, n)
}

func TestFormatAddress(t *testing.T) {
	r := newFixture(t)
	tests := []struct {
		name  string
		codes Codes
		want  string
	}{
		{name: "nothing", codes: Codes{}, want: "N/A"},
		{name: "unknown codes", codes: Codes{Region: C(5), SubRegion: C(6), Locality: C(7)}, want: "N/A"},
		{name: "full", codes: Codes{Region: C(10), SubRegion: C(100), Locality: C(1000)}, want: "Ward X, District Y, Province Z"},
		{name: "locality only", codes: Codes{Locality: C(1010)}, want: "Ward U"},
		{name: "skips missing middle", codes: Codes{Region: C(20), SubRegion: C(999), Locality: C(2000)}, want: "Ward R, Province T"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.FormatAddress(tt.codes, "N/A"))
		})
	}
}

func TestFormatAddress_Separator(t *testing.T) {
	r := newFixture(t, WithSeparator(" - "))
	codes := Codes{Region: C(10), SubRegion: C(100), Locality: C(1000)}
	assert.Equal(t, "Ward X - District Y - Province Z", r.FormatAddress(codes, ""))
	assert.Equal(t, "Ward X|District Y|Province Z", r.FormatAddressSep(codes, "", "|"))
	assert.Equal(t, "", r.FormatAddress(Codes{}, ""))
}

func TestChildrenLists(t *testing.T) {
	r := newFixture(t)
	assert.Len(t, r.Regions(), 3)
	assert.Len(t, r.SubRegionsOf(C(10)), 2)
	assert.Empty(t, r.SubRegionsOf(C(99)))
	assert.Len(t, r.LocalitiesOf(C(100)), 2)
	assert.Empty(t, r.LocalitiesOf(Code{}))
	assert.Equal(t, Stats{Regions: 3, SubRegions: 4, Localities: 4}, r.Stats())
}

func TestParseCode(t *testing.T) {
	assert.Equal(t, Code{Value: 12, Valid: true}, ParseCode(" 12 "))
	assert.Equal(t, Code{Value: 0, Valid: true}, ParseCode("0"))
	assert.False(t, ParseCode("").Valid)
	assert.False(t, ParseCode("-3").Valid)
	assert.False(t, ParseCode("1a").Valid)
	assert.False(t, C(-1).Valid)
	assert.Equal(t, "", Code{}.String())
	assert.Equal(t, "7", C(7).String())
}

func TestResolver_ConcurrentReads(t *testing.T) {
	r := newFixture(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got := r.FormatAddress(Codes{Region: C(10), SubRegion: C(100), Locality: C(1000)}, "N/A")
				assert.Equal(t, "Ward X, District Y, Province Z", got)
			}
		}()
	}
	wg.Wait()
}

func TestNew_CopiesInput(t *testing.T) {
	regs := fixture()
	r, err := New(regs)
	require.NoError(t, err)

	regs[1].Code = 10
	regs[0].Name = "changed"
	regs[0].SubRegions[0].Localities[0].Name = "changed"

	reg, ok := r.FindRegion(C(20))
	require.True(t, ok)
	assert.Equal(t, "Province T", reg.Name)
	assert.Equal(t, "Ward X, District Y, Province Z", r.FormatAddress(Codes{Region: C(10), SubRegion: C(100), Locality: C(1000)}, ""))
}

func TestResolver_ReturnsCopies(t *testing.T) {
	r := newFixture(t)

	r.Regions()[0].Name = "changed"
	r.Regions()[0].SubRegions[0].Name = "changed"
	r.SubRegionsOf(C(10))[0].Localities[0].Name = "changed"
	r.LocalitiesOf(C(100))[0].Name = "changed"
	reg, _ := r.FindRegion(C(10))
	reg.SubRegions[0].Localities[0].Name = "changed"
	sub, _ := r.FindSubRegion(C(100), Code{})
	sub.Localities[0].Name = "changed"
	m, _ := r.MatchRegion("Province Z")
	m.SubRegions[0].Name = "changed"

	assert.Equal(t, "Ward X, District Y, Province Z", r.FormatAddress(Codes{Region: C(10), SubRegion: C(100), Locality: C(1000)}, ""))
	reg, ok := r.FindRegion(C(10))
	require.True(t, ok)
	assert.Equal(t, "Province Z", reg.Name)
	assert.Equal(t, "District Y", reg.SubRegions[0].Name)
}

func TestFingerprint(t *testing.T) {
	a := newFixture(t)
	b := newFixture(t, WithSeparator(" - "))
	assert.NotEmpty(t, a.Fingerprint())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	regs := fixture()
	regs[0].SubRegions[0].Localities[0].Name = "Ward X2"
	c, err := New(regs)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	regs = fixture()
	regs = regs[:2]
	d, err := New(regs)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
}
