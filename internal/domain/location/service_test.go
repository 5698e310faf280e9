package location

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/domain/audit"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeAuditRepo struct {
	entries []*audit.Entry
}

func (r *fakeAuditRepo) Append(_ context.Context, entry *audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, _ string, _ id.ID) ([]*audit.Entry, error) {
	return r.entries, nil
}

func (r *fakeAuditRepo) ListRecent(_ context.Context, _ int) ([]*audit.Entry, error) {
	return r.entries, nil
}

type fakeSiteRepo struct {
	sites map[id.ID]*Site
}

func (r *fakeSiteRepo) Create(_ context.Context, site *Site) error {
	r.sites[site.ID] = site
	return nil
}

func (r *fakeSiteRepo) GetByID(_ context.Context, siteID id.ID) (*Site, error) {
	site, ok := r.sites[siteID]
	if !ok {
		return nil, apperror.NewNotFound("sites", siteID.String())
	}
	return site, nil
}

func (r *fakeSiteRepo) List(_ context.Context) ([]*Site, error) {
	out := make([]*Site, 0, len(r.sites))
	for _, s := range r.sites {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSiteRepo) ExistsCode(_ context.Context, code string) (bool, error) {
	for _, s := range r.sites {
		if s.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSiteRepo) Delete(_ context.Context, siteID id.ID) error {
	if _, ok := r.sites[siteID]; !ok {
		return apperror.NewNotFound("sites", siteID.String())
	}
	delete(r.sites, siteID)
	return nil
}

type fakeBuildingRepo struct {
	buildings map[id.ID]*Building
}

func (r *fakeBuildingRepo) Create(_ context.Context, b *Building) error {
	r.buildings[b.ID] = b
	return nil
}

func (r *fakeBuildingRepo) GetByID(_ context.Context, buildingID id.ID) (*Building, error) {
	b, ok := r.buildings[buildingID]
	if !ok {
		return nil, apperror.NewNotFound("buildings", buildingID.String())
	}
	return b, nil
}

func (r *fakeBuildingRepo) ListBySite(_ context.Context, siteID id.ID) ([]*Building, error) {
	var out []*Building
	for _, b := range r.buildings {
		if b.SiteID == siteID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBuildingRepo) ExistsCode(_ context.Context, siteID id.ID, code string) (bool, error) {
	for _, b := range r.buildings {
		if b.SiteID == siteID && b.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBuildingRepo) Delete(_ context.Context, buildingID id.ID) error {
	delete(r.buildings, buildingID)
	return nil
}

func newTestService() (*Service, *fakeSiteRepo, *fakeBuildingRepo, *fakeAuditRepo) {
	sites := &fakeSiteRepo{sites: make(map[id.ID]*Site)}
	buildings := &fakeBuildingRepo{buildings: make(map[id.ID]*Building)}
	audits := &fakeAuditRepo{}
	svc := NewService(sites, buildings, nil, nil, nil, nil, audits, fakeTxManager{})
	return svc, sites, buildings, audits
}

func TestCreateSite(t *testing.T) {
	svc, sites, _, audits := newTestService()
	actor := id.New()

	site, err := svc.CreateSite(context.Background(), "HQ", "Headquarters", actor)
	require.NoError(t, err)
	assert.False(t, id.IsNil(site.ID))
	assert.Contains(t, sites.sites, site.ID)

	require.Len(t, audits.entries, 1)
	assert.Equal(t, audit.ActionCreate, audits.entries[0].Action)
	assert.Equal(t, "site", audits.entries[0].EntityType)
}

func TestCreateSite_DuplicateCode(t *testing.T) {
	svc, _, _, _ := newTestService()
	actor := id.New()
	ctx := context.Background()

	_, err := svc.CreateSite(ctx, "HQ", "Headquarters", actor)
	require.NoError(t, err)

	_, err = svc.CreateSite(ctx, "HQ", "Second HQ", actor)
	assert.True(t, apperror.IsDuplicate(err))
}

func TestCreateSite_InvalidInput(t *testing.T) {
	svc, _, _, _ := newTestService()
	actor := id.New()
	ctx := context.Background()

	_, err := svc.CreateSite(ctx, "", "No Code", actor)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.CreateSite(ctx, "OK", "", actor)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateBuilding_ParentMissing(t *testing.T) {
	svc, _, _, _ := newTestService()
	actor := id.New()

	_, err := svc.CreateBuilding(context.Background(), id.New(), "B1", "Main", actor)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateBuilding_CodeScopedToSite(t *testing.T) {
	svc, _, _, _ := newTestService()
	actor := id.New()
	ctx := context.Background()

	siteA, err := svc.CreateSite(ctx, "A", "Site A", actor)
	require.NoError(t, err)
	siteB, err := svc.CreateSite(ctx, "B", "Site B", actor)
	require.NoError(t, err)

	_, err = svc.CreateBuilding(ctx, siteA.ID, "B1", "Main", actor)
	require.NoError(t, err)

	// Same code under a different site is fine.
	_, err = svc.CreateBuilding(ctx, siteB.ID, "B1", "Main", actor)
	require.NoError(t, err)

	// Same code under the same site is rejected.
	_, err = svc.CreateBuilding(ctx, siteA.ID, "B1", "Annex", actor)
	assert.True(t, apperror.IsDuplicate(err))
}

func TestDeleteSite_Audited(t *testing.T) {
	svc, sites, _, audits := newTestService()
	actor := id.New()
	ctx := context.Background()

	site, err := svc.CreateSite(ctx, "HQ", "Headquarters", actor)
	require.NoError(t, err)

	err = svc.DeleteSite(ctx, site.ID, actor)
	require.NoError(t, err)
	assert.NotContains(t, sites.sites, site.ID)

	require.Len(t, audits.entries, 2)
	assert.Equal(t, audit.ActionDelete, audits.entries[1].Action)
	assert.NotEmpty(t, audits.entries[1].BeforeJSON)
}

func TestPathNames(t *testing.T) {
	area := "Sub-area"
	withArea := Path{
		SiteName:        "HQ",
		BuildingName:    "Main",
		RoomName:        "Workshop",
		AreaName:        &area,
		StorageUnitName: "Cabinet",
		BinName:         "Bin 1",
	}
	assert.Equal(t, []string{"HQ", "Main", "Workshop", "Sub-area", "Cabinet", "Bin 1"}, withArea.Names())

	withoutArea := withArea
	withoutArea.AreaName = nil
	assert.Equal(t, []string{"HQ", "Main", "Workshop", "Cabinet", "Bin 1"}, withoutArea.Names())
}
