package inventory

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kota/internal/core/apperror"
	"kota/internal/core/id"
	"kota/internal/core/types"
	"kota/internal/domain/audit"
	"kota/internal/domain/item"
	"kota/internal/domain/ledger"
	"kota/internal/domain/location"
)

// --- In-memory fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeItemRepo struct {
	items map[id.ID]*item.Item
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[id.ID]*item.Item)}
}

func (r *fakeItemRepo) GetByID(_ context.Context, itemID id.ID) (*item.Item, error) {
	it, ok := r.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("items", itemID.String())
	}
	cp := *it
	return &cp, nil
}

func (r *fakeItemRepo) Create(_ context.Context, it *item.Item) error {
	cp := *it
	r.items[it.ID] = &cp
	return nil
}

func (r *fakeItemRepo) Update(_ context.Context, it *item.Item) error {
	stored, ok := r.items[it.ID]
	if !ok {
		return apperror.NewNotFound("items", it.ID.String())
	}
	if stored.Version != it.Version {
		return apperror.NewConcurrentModification("items", it.ID)
	}
	cp := *it
	cp.SetVersion(it.Version + 1)
	r.items[it.ID] = &cp
	it.SetVersion(cp.Version)
	return nil
}

func (r *fakeItemRepo) Delete(_ context.Context, itemID id.ID) error {
	if _, ok := r.items[itemID]; !ok {
		return apperror.NewNotFound("items", itemID.String())
	}
	delete(r.items, itemID)
	return nil
}

func (r *fakeItemRepo) ListGrid(_ context.Context) ([]*item.GridRow, error)     { return nil, nil }
func (r *fakeItemRepo) ListLowStock(_ context.Context) ([]*item.GridRow, error) { return nil, nil }
func (r *fakeItemRepo) GetLocation(_ context.Context, _ id.ID) (*location.Path, error) {
	return nil, nil
}

type fakeLedgerRepo struct {
	entries []*ledger.StockTransaction
}

func (r *fakeLedgerRepo) Append(ctx context.Context, entry *ledger.StockTransaction) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if err := entry.Validate(ctx); err != nil {
		return err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLedgerRepo) ListByItem(_ context.Context, itemID id.ID) ([]*ledger.StockTransaction, error) {
	var out []*ledger.StockTransaction
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].ItemID == itemID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) ListRecent(_ context.Context, limit int) ([]*ledger.StockTransaction, error) {
	return r.entries, nil
}

func (r *fakeLedgerRepo) sum(itemID id.ID) types.Quantity {
	total := types.ZeroQuantity()
	for _, e := range r.entries {
		if e.ItemID == itemID {
			total = total.Add(e.QtyDelta)
		}
	}
	return total
}

type fakeAuditRepo struct {
	entries []*audit.Entry
}

func (r *fakeAuditRepo) Append(ctx context.Context, entry *audit.Entry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if err := entry.Validate(ctx); err != nil {
		return err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, entityType string, entityID id.ID) ([]*audit.Entry, error) {
	var out []*audit.Entry
	for _, e := range r.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) ListRecent(_ context.Context, limit int) ([]*audit.Entry, error) {
	return r.entries, nil
}

type fakeBinRepo struct {
	known map[id.ID]bool
}

func (r *fakeBinRepo) Exists(_ context.Context, binID id.ID) (bool, error) {
	return r.known[binID], nil
}

func (r *fakeBinRepo) Create(_ context.Context, _ *location.Bin) error { return nil }
func (r *fakeBinRepo) GetByID(_ context.Context, binID id.ID) (*location.Bin, error) {
	return nil, apperror.NewNotFound("bins", binID.String())
}
func (r *fakeBinRepo) ListByStorageUnit(_ context.Context, _ id.ID) ([]*location.Bin, error) {
	return nil, nil
}
func (r *fakeBinRepo) ExistsCode(_ context.Context, _ id.ID, _ string) (bool, error) {
	return false, nil
}
func (r *fakeBinRepo) GetPath(_ context.Context, binID id.ID) (*location.Path, error) {
	return nil, apperror.NewNotFound("bins", binID.String())
}
func (r *fakeBinRepo) Delete(_ context.Context, _ id.ID) error { return nil }

// --- Test harness ---

type harness struct {
	svc    *Service
	items  *fakeItemRepo
	ledger *fakeLedgerRepo
	audits *fakeAuditRepo
	bins   *fakeBinRepo
	binID  id.ID
	actor  id.ID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	binID := id.New()
	h := &harness{
		items:  newFakeItemRepo(),
		ledger: &fakeLedgerRepo{},
		audits: &fakeAuditRepo{},
		bins:   &fakeBinRepo{known: map[id.ID]bool{binID: true}},
		binID:  binID,
		actor:  id.New(),
	}
	h.svc = NewService(h.items, h.ledger, h.audits, h.bins, fakeTxManager{})
	return h
}

func (h *harness) createItem(t *testing.T, qty string) *item.Item {
	t.Helper()
	draft := &item.Item{
		Description: "M3 hex bolt",
		QtyOnHand:   types.MustQuantity(qty),
		BinID:       h.binID,
	}
	created, err := h.svc.CreateItem(context.Background(), draft, h.actor)
	require.NoError(t, err)
	return created
}

// --- Tests ---

func TestCreateItem_InitialLoad(t *testing.T) {
	h := newHarness(t)

	created := h.createItem(t, "25")

	assert.Equal(t, 1, created.Version)
	require.Len(t, h.ledger.entries, 1)
	entry := h.ledger.entries[0]
	assert.Equal(t, ledger.ReasonInitialLoad, entry.ReasonCode)
	assert.True(t, entry.QtyDelta.Equal(types.MustQuantity("25")))
	assert.True(t, h.ledger.sum(created.ID).Equal(created.QtyOnHand))

	require.Len(t, h.audits.entries, 1)
	assert.Equal(t, audit.ActionCreate, h.audits.entries[0].Action)
	assert.NotEmpty(t, h.audits.entries[0].AfterJSON)
}

func TestCreateItem_ZeroQuantityNoLedgerEntry(t *testing.T) {
	h := newHarness(t)

	created := h.createItem(t, "0")

	assert.Empty(t, h.ledger.entries)
	assert.True(t, created.QtyOnHand.IsZero())
}

func TestCreateItem_UnknownBin(t *testing.T) {
	h := newHarness(t)

	draft := &item.Item{
		Description: "washer",
		BinID:       id.New(),
	}
	_, err := h.svc.CreateItem(context.Background(), draft, h.actor)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAddRemoveStock_LedgerReconciles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.createItem(t, "10")

	it, err := h.svc.AddStock(ctx, created.ID, types.MustQuantity("5"), nil, h.actor)
	require.NoError(t, err)
	assert.True(t, it.QtyOnHand.Equal(types.MustQuantity("15")))
	assert.Equal(t, 2, it.Version)

	it, err = h.svc.RemoveStock(ctx, created.ID, types.MustQuantity("7"), nil, h.actor)
	require.NoError(t, err)
	assert.True(t, it.QtyOnHand.Equal(types.MustQuantity("8")))

	assert.True(t, h.ledger.sum(created.ID).Equal(it.QtyOnHand))
}

func TestRemoveStock_Insufficient(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.createItem(t, "3")

	_, err := h.svc.RemoveStock(ctx, created.ID, types.MustQuantity("5"), nil, h.actor)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Nothing changed: balance, ledger and version are untouched.
	stored, err := h.items.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.QtyOnHand.Equal(types.MustQuantity("3")))
	assert.Equal(t, 1, stored.Version)
	assert.True(t, h.ledger.sum(created.ID).Equal(stored.QtyOnHand))
}

func TestRemoveStock_ExactBalanceToZero(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.createItem(t, "3")

	it, err := h.svc.RemoveStock(ctx, created.ID, types.MustQuantity("3"), nil, h.actor)
	require.NoError(t, err)
	assert.True(t, it.QtyOnHand.IsZero())
}

func TestAdjustStock_RejectsNonPositive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.createItem(t, "3")

	_, err := h.svc.AddStock(ctx, created.ID, types.MustQuantity("0"), nil, h.actor)
	assert.True(t, apperror.IsValidation(err))

	_, err = h.svc.RemoveStock(ctx, created.ID, types.MustQuantity("-2"), nil, h.actor)
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdateItem_StaleVersionConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.createItem(t, "10")

	// First writer succeeds.
	first := *created
	first.Description = "M3 hex bolt, steel"
	_, err := h.svc.UpdateItem(ctx, &first, h.actor)
	require.NoError(t, err)

	// Second writer holds the version read before the first write.
	second := *created
	second.Description = "M3 hex bolt, brass"
	_, err = h.svc.UpdateItem(ctx, &second, h.actor)
	assert.True(t, apperror.IsConcurrentModification(err))

	stored, err := h.items.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "M3 hex bolt, steel", stored.Description)
	assert.Equal(t, 2, stored.Version)
}

func TestUpdateItem_QuantityEditAdjust(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.createItem(t, "10")

	edited := *created
	edited.QtyOnHand = types.MustQuantity("4")
	updated, err := h.svc.UpdateItem(ctx, &edited, h.actor)
	require.NoError(t, err)

	require.Len(t, h.ledger.entries, 2)
	adjust := h.ledger.entries[1]
	assert.Equal(t, ledger.ReasonEditAdjust, adjust.ReasonCode)
	assert.True(t, adjust.QtyDelta.Equal(types.MustQuantity("-6")))
	assert.True(t, h.ledger.sum(created.ID).Equal(updated.QtyOnHand))
}

func TestUpdateItem_NoQuantityChangeNoLedgerEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.createItem(t, "10")

	edited := *created
	edited.Description = "renamed"
	_, err := h.svc.UpdateItem(ctx, &edited, h.actor)
	require.NoError(t, err)

	// Only the initial_load entry exists.
	assert.Len(t, h.ledger.entries, 1)
}

func TestDeleteItem_CompensatingEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.createItem(t, "12")

	err := h.svc.DeleteItem(ctx, created.ID, h.actor)
	require.NoError(t, err)

	_, err = h.items.GetByID(ctx, created.ID)
	assert.True(t, apperror.IsNotFound(err))

	// Ledger reconciles to zero after deletion.
	assert.True(t, h.ledger.sum(created.ID).IsZero())
	last := h.ledger.entries[len(h.ledger.entries)-1]
	assert.Equal(t, ledger.ReasonDeleteItem, last.ReasonCode)
	assert.True(t, last.QtyDelta.Equal(types.MustQuantity("-12")))
}

func TestDeleteItem_ZeroBalanceNoCompensation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.createItem(t, "0")

	err := h.svc.DeleteItem(ctx, created.ID, h.actor)
	require.NoError(t, err)
	assert.Empty(t, h.ledger.entries)

	require.Len(t, h.audits.entries, 2)
	assert.Equal(t, audit.ActionDelete, h.audits.entries[1].Action)
	assert.NotEmpty(t, h.audits.entries[1].BeforeJSON)
}

func TestBulkRemove_PartialCompletion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rich := h.createItem(t, "20")
	poor := h.createItem(t, "1")
	missing := id.New()
	alsoRich := h.createItem(t, "30")

	results := h.svc.BulkRemoveStock(ctx, []id.ID{rich.ID, poor.ID, missing, alsoRich.ID}, types.MustQuantity("5"), h.actor)
	require.Len(t, results, 4)

	assert.False(t, results[0].Failed())
	assert.True(t, apperror.IsInsufficientStock(results[1].Err))
	assert.True(t, apperror.IsNotFound(results[2].Err))
	// A failure mid-batch does not stop later items.
	assert.False(t, results[3].Failed())

	stored, _ := h.items.GetByID(ctx, rich.ID)
	assert.True(t, stored.QtyOnHand.Equal(types.MustQuantity("15")))
	stored, _ = h.items.GetByID(ctx, poor.ID)
	assert.True(t, stored.QtyOnHand.Equal(types.MustQuantity("1")))
	stored, _ = h.items.GetByID(ctx, alsoRich.ID)
	assert.True(t, stored.QtyOnHand.Equal(types.MustQuantity("25")))
}

func TestBulkAdd_UsesBulkReason(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.createItem(t, "1")
	b := h.createItem(t, "2")

	results := h.svc.BulkAddStock(ctx, []id.ID{a.ID, b.ID}, types.MustQuantity("3"), h.actor)
	for _, res := range results {
		assert.False(t, res.Failed())
	}

	for _, entry := range h.ledger.entries[2:] {
		assert.Equal(t, ledger.ReasonBulkAdd, entry.ReasonCode)
	}
}

func TestBulkDelete_Independent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.createItem(t, "5")
	missing := id.New()
	b := h.createItem(t, "0")

	results := h.svc.BulkDeleteItems(ctx, []id.ID{a.ID, missing, b.ID}, h.actor)
	require.Len(t, results, 3)
	assert.False(t, results[0].Failed())
	assert.True(t, apperror.IsNotFound(results[1].Err))
	assert.False(t, results[2].Failed())

	assert.Empty(t, h.items.items)
}

// Random walk over add/remove keeps the balance non-negative and equal
// to the ledger sum at every step.
func TestStock_RandomWalkInvariants(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.createItem(t, "50")

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		qty := types.NewQuantity(float64(rng.Intn(20) + 1))
		var err error
		if rng.Intn(2) == 0 {
			_, err = h.svc.AddStock(ctx, created.ID, qty, nil, h.actor)
		} else {
			_, err = h.svc.RemoveStock(ctx, created.ID, qty, nil, h.actor)
			if apperror.IsInsufficientStock(err) {
				err = nil
			}
		}
		require.NoError(t, err)

		stored, getErr := h.items.GetByID(ctx, created.ID)
		require.NoError(t, getErr)
		assert.False(t, stored.QtyOnHand.IsNegative(), "balance went negative at step %d", i)
		assert.True(t, h.ledger.sum(created.ID).Equal(stored.QtyOnHand), "ledger diverged at step %d", i)
	}
}
