package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/holdings/internal/collection"
	"github.com/wonny/holdings/internal/contracts"
	"github.com/wonny/holdings/internal/importer"
	"github.com/wonny/holdings/internal/storage"
)

var fixedNow = time.Date(2024, 6, 30, 9, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }

// testOptions yields a fixed clock and sequential ids
func testOptions(now *time.Time) Options {
	n := 0
	return Options{
		Now: func() time.Time { return *now },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%03d", n)
		},
	}
}

func newWorkspace(t *testing.T, bridge storage.Bridge) *Workspace {
	t.Helper()
	now := fixedNow
	w := NewWorkspace(bridge, testOptions(&now))
	require.NoError(t, w.Load(context.Background()))
	return w
}

func fund(name string) *contracts.Fund {
	return &contracts.Fund{
		Name: name, Strategy: "Buyout", Vintage: 2019, AUM: 500,
		Commitments: 450, Called: 50, Distributed: 10, NAV: 40,
		Status: contracts.FundActive,
	}
}

func activeInvestment(fundID string) *contracts.Investment {
	return &contracts.Investment{
		FundID: fundID, CompanyName: "Acme", Sector: "Industrial",
		InvestmentDate: "2020-01-01", InitialInvestment: 10, Ownership: 25,
		Status: contracts.InvestmentActive, CurrentValue: f64(20),
	}
}

// flakyBridge fails saves of one key
type flakyBridge struct {
	*storage.Memory
	failKey string
}

func (b *flakyBridge) Save(ctx context.Context, key string, blob []byte) error {
	if key == b.failKey {
		return errors.New("disk full")
	}
	return b.Memory.Save(ctx, key, blob)
}

func TestCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, storage.NewMemory())

	in := fund("Alpha")
	in.ID = "caller-chosen"
	created, err := w.Funds.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "id-001", created.ID, "create always assigns a fresh id")
	assert.Equal(t, 0.2, created.DPI)
	assert.Equal(t, 1.0, created.TVPI)
	assert.Equal(t, "caller-chosen", in.ID, "input is not mutated")

	got, ok := w.Funds.Get(created.ID)
	require.True(t, ok)
	got.Name = "mutated"
	again, _ := w.Funds.Get(created.ID)
	assert.Equal(t, "Alpha", again.Name, "Get returns a copy")

	upd := fund("Alpha II")
	upd.Distributed = 50
	updated, err := w.Funds.Update(ctx, created.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 1.0, updated.DPI)
	assert.Equal(t, []string{"id-001"}, w.Funds.IDs())

	_, err = w.Funds.Update(ctx, "missing", fund("X"))
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	require.NoError(t, w.Funds.Delete(ctx, created.ID))
	assert.Equal(t, 0, w.Funds.Len())
	assert.ErrorIs(t, w.Funds.Delete(ctx, created.ID), contracts.ErrNotFound)
}

func TestCollection_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, storage.NewMemory())

	bad := fund("Alpha")
	bad.Vintage = 1800
	_, err := w.Funds.Create(ctx, bad)
	var fe *contracts.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, contracts.ReasonOutOfRange, fe.Reason)
	assert.Equal(t, 0, w.Funds.Len())

	_, err = w.Investments.Create(ctx, activeInvestment("nope"))
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, contracts.ReasonUnknownReference, fe.Reason)
	assert.Equal(t, "fundId", fe.Field)
}

func TestCollection_FailedSaveLeavesMemory(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	w := newWorkspace(t, mem)

	f, err := w.Funds.Create(ctx, fund("Alpha"))
	require.NoError(t, err)

	mem.FailSave = errors.New("quota exceeded")
	_, err = w.Funds.Create(ctx, fund("Beta"))
	require.Error(t, err)
	assert.Equal(t, 1, w.Funds.Len())

	_, err = w.Funds.Update(ctx, f.ID, fund("Renamed"))
	require.Error(t, err)
	got, _ := w.Funds.Get(f.ID)
	assert.Equal(t, "Alpha", got.Name)

	require.Error(t, w.Funds.Delete(ctx, f.ID))
	assert.True(t, w.Funds.Has(f.ID))

	_, err = w.Funds.ApplyImportBatch(ctx, []*contracts.Fund{fund("C")})
	require.Error(t, err)
	assert.Equal(t, 1, w.Funds.Len())
}

func TestCollection_ApplyImportBatchAllOrNothing(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, storage.NewMemory())

	bad := fund("Bad")
	bad.Status = "Open"
	_, err := w.Funds.ApplyImportBatch(ctx, []*contracts.Fund{fund("A"), bad})
	require.Error(t, err)
	assert.Equal(t, 0, w.Funds.Len())

	added, err := w.Funds.ApplyImportBatch(ctx, []*contracts.Fund{fund("A"), fund("B")})
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.NotEqual(t, added[0].ID, added[1].ID)
	assert.Equal(t, 2, w.Funds.Len())

	none, err := w.Funds.ApplyImportBatch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCollection_Find(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, storage.NewMemory())
	for _, name := range []string{"A", "B", "C"} {
		_, err := w.Funds.Create(ctx, fund(name))
		require.NoError(t, err)
	}
	found := w.Funds.Find(func(f *contracts.Fund) bool { return f.Name != "B" })
	require.Len(t, found, 2)
	assert.Equal(t, "A", found[0].Name)
	assert.Equal(t, "C", found[1].Name)
	assert.Len(t, w.Funds.All(), 3)
}

func TestWorkspace_LoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	w := newWorkspace(t, mem)

	f, err := w.Funds.Create(ctx, fund("Alpha"))
	require.NoError(t, err)
	inv, err := w.Investments.Create(ctx, activeInvestment(f.ID))
	require.NoError(t, err)

	reloaded := newWorkspace(t, mem)
	assert.Empty(t, reloaded.Drift())
	got, ok := reloaded.Investments.Get(inv.ID)
	require.True(t, ok)
	assert.Equal(t, inv, got)
}

func TestWorkspace_LoadDrift(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	blob := `{"kind":"fund","items":[
		{"id":"f1","name":"Alpha","strategy":"Buyout","vintage":2019,"aum":500,"irr":14,"moic":1.6,
		 "commitments":450,"called":50,"distributed":10,"nav":40,"status":"Active","dpi":0.9,"tvpi":1.0},
		{"id":"f2","name":"Beta","strategy":"Growth","vintage":2020,"aum":100,"irr":9,"moic":1.1,
		 "commitments":90,"called":30,"distributed":15,"nav":30,"status":"Active","dpi":0.5,"tvpi":1.5}]}`
	require.NoError(t, mem.Save(ctx, "funds", []byte(blob)))

	w := newWorkspace(t, mem)
	assert.Equal(t, map[contracts.Kind][]string{contracts.KindFund: {"f1"}}, w.Drift())
	f1, _ := w.Funds.Get("f1")
	assert.Equal(t, 0.2, f1.DPI, "recomputed value is kept")
}

func TestWorkspace_LoadDanglingReferences(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	funds := `[{"id":"f1","name":"Alpha","strategy":"Buyout","vintage":2019,"aum":500,"irr":14,"moic":1.6,
		"commitments":450,"called":50,"distributed":10,"nav":40,"status":"Active"}]`
	investments := `[
		{"id":"i1","fundId":"f1","companyName":"Acme","sector":"Industrial","investmentDate":"2020-01-01",
		 "initialInvestment":10,"ownership":25,"status":"Active","currentValue":20},
		{"id":"i2","fundId":"ghost","companyName":"Orphan","sector":"Retail","investmentDate":"2020-01-01",
		 "initialInvestment":10,"ownership":25,"status":"Active","currentValue":20}]`
	require.NoError(t, mem.Save(ctx, "funds", []byte(funds)))
	require.NoError(t, mem.Save(ctx, "investments", []byte(investments)))

	w := newWorkspace(t, mem)
	assert.Equal(t, map[contracts.Kind][]string{contracts.KindInvestment: {"i2"}}, w.Dangling())
	assert.True(t, w.Investments.Has("i2"), "dangling entities stay loaded")

	// removing the orphan clears the report on the next load
	require.NoError(t, w.Investments.Delete(ctx, "i2"))
	require.NoError(t, w.Load(ctx))
	assert.Empty(t, w.Dangling())
}

func TestWorkspace_ActiveValuationAgingIsNotDrift(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	w := newWorkspace(t, mem)
	f, err := w.Funds.Create(ctx, fund("Alpha"))
	require.NoError(t, err)
	inv, err := w.Investments.Create(ctx, activeInvestment(f.ID))
	require.NoError(t, err)

	later := fixedNow.AddDate(1, 0, 0)
	aged := NewWorkspace(mem, testOptions(&later))
	require.NoError(t, aged.Load(ctx))

	assert.Empty(t, aged.Drift())
	got, _ := aged.Investments.Get(inv.ID)
	assert.Equal(t, contracts.DateOf(later), got.ValuationDate)
	require.NotNil(t, got.IRR)
	assert.Less(t, *got.IRR, *inv.IRR, "same mark held longer yields a lower IRR")
}

func TestWorkspace_LoadFormats(t *testing.T) {
	ctx := context.Background()

	t.Run("bare array with missing ids", func(t *testing.T) {
		mem := storage.NewMemory()
		blob := `[{"registration":"AB-1","type":"Van","capacity":3,"status":"Available"}]`
		require.NoError(t, mem.Save(ctx, "vehicles", []byte(blob)))

		w := newWorkspace(t, mem)
		require.Equal(t, 1, w.Vehicles.Len())
		id := w.Vehicles.IDs()[0]
		assert.NotEmpty(t, id)
		assert.Equal(t, []string{id}, w.Drift()[contracts.KindVehicle])
	})

	t.Run("duplicate ids keep the first", func(t *testing.T) {
		mem := storage.NewMemory()
		blob := `[{"id":"v","registration":"A","type":"Van","capacity":3,"status":"Available"},
			{"id":"v","registration":"B","type":"Van","capacity":3,"status":"Available"}]`
		require.NoError(t, mem.Save(ctx, "vehicles", []byte(blob)))

		w := newWorkspace(t, mem)
		require.Equal(t, 1, w.Vehicles.Len())
		v, _ := w.Vehicles.Get("v")
		assert.Equal(t, "A", v.Registration)
	})

	t.Run("foreign kind", func(t *testing.T) {
		mem := storage.NewMemory()
		require.NoError(t, mem.Save(ctx, "vehicles", []byte(`{"kind":"fund","items":[]}`)))
		now := fixedNow
		w := NewWorkspace(mem, testOptions(&now))
		assert.Error(t, w.Load(ctx))
	})

	t.Run("garbage", func(t *testing.T) {
		mem := storage.NewMemory()
		require.NoError(t, mem.Save(ctx, "students", []byte(`{not json`)))
		now := fixedNow
		w := NewWorkspace(mem, testOptions(&now))
		assert.Error(t, w.Load(ctx))
	})
}

const investmentHeader = "fundId,companyName,sector,investmentDate,initialInvestment,ownership,status,currentValue,exitDate,exitValue\n"

func TestWorkspace_Import(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	w := newWorkspace(t, mem)

	f, err := w.Funds.Create(ctx, fund("Alpha"))
	require.NoError(t, err)

	csv := investmentHeader +
		f.ID + ",Acme,Industrial,2020-01-01,10,25,Active,20,,\n" +
		"ghost,Orphan,Retail,2020-01-01,10,25,Active,20,,\n" +
		f.ID + ",Bust,Retail,2020-01-01,20,10,Written Off,,2021-01-01,0\n"

	r, err := w.Import(ctx, contracts.KindInvestment, importer.FormatCSV, []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Succeeded())
	require.Equal(t, 1, r.Failed())
	assert.Equal(t, 3, r.Failures[0].Row)
	assert.Equal(t, contracts.ReasonUnknownReference, r.Failures[0].Reason)

	assert.Equal(t, 2, w.Investments.Len())
	for _, item := range r.Imported {
		assert.True(t, w.Investments.Has(item.EntityID()), "report carries committed ids")
	}

	reloaded := newWorkspace(t, mem)
	assert.Equal(t, 2, reloaded.Investments.Len())
}

func TestWorkspace_ImportAbortLeavesCollection(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, storage.NewMemory())
	_, err := w.Funds.Create(ctx, fund("Alpha"))
	require.NoError(t, err)

	r, err := w.Import(ctx, contracts.KindFund, importer.FormatCSV, []byte("name,strategy\nA,B\n"))
	var missing *contracts.MissingHeadersError
	require.ErrorAs(t, err, &missing)
	require.NotNil(t, r)
	assert.Equal(t, importer.StateAborted, r.State)
	assert.Equal(t, 1, w.Funds.Len())
}

func TestWorkspace_ImportCommitFailure(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, &flakyBridge{Memory: storage.NewMemory(), failKey: "funds"})

	csv := "name,strategy,vintage,aum,irr,moic,commitments,called,distributed,nav,status\n" +
		"A,Buyout,2019,500,14.2,1.6,450,50,10,40,Active\n"
	r, err := w.Import(ctx, contracts.KindFund, importer.FormatCSV, []byte(csv))
	require.Error(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 0, w.Funds.Len())
}

func TestWorkspace_DeleteCascades(t *testing.T) {
	ctx := context.Background()

	t.Run("fund removes its investments", func(t *testing.T) {
		w := newWorkspace(t, storage.NewMemory())
		a, _ := w.Funds.Create(ctx, fund("A"))
		b, _ := w.Funds.Create(ctx, fund("B"))
		i1, err := w.Investments.Create(ctx, activeInvestment(a.ID))
		require.NoError(t, err)
		i2, err := w.Investments.Create(ctx, activeInvestment(b.ID))
		require.NoError(t, err)

		res, err := w.Delete(ctx, contracts.KindFund, a.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{i1.ID}, res.Removed)
		assert.False(t, w.Funds.Has(a.ID))
		assert.Equal(t, []string{i2.ID}, w.Investments.IDs())
	})

	t.Run("student removes progress", func(t *testing.T) {
		w := newWorkspace(t, storage.NewMemory())
		s, err := w.Students.Create(ctx, &contracts.Student{
			Name: "Ann", Email: "ann@example.com", Grade: 3,
			EnrollmentDate: "2023-09-01", Status: contracts.StudentActive,
		})
		require.NoError(t, err)
		p, err := w.Progress.Create(ctx, &contracts.Progress{
			StudentID: s.ID, Subject: "Maths", RecordedDate: "2024-01-10",
			Status: contracts.ProgressInProgress,
		})
		require.NoError(t, err)

		res, err := w.Delete(ctx, contracts.KindStudent, s.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{p.ID}, res.Removed)
		assert.Equal(t, 0, w.Progress.Len())
	})

	t.Run("vehicle unassigns shipments", func(t *testing.T) {
		w := newWorkspace(t, storage.NewMemory())
		v, err := w.Vehicles.Create(ctx, &contracts.Vehicle{
			Registration: "AB-1", Type: "Van", Capacity: 3, Status: contracts.VehicleAvailable,
		})
		require.NoError(t, err)
		s, err := w.Shipments.Create(ctx, &contracts.Shipment{
			VehicleID: v.ID, Origin: "Leeds", Destination: "York", Weight: 1, Value: 100,
			DispatchDate: "2024-06-01", Status: contracts.ShipmentDelivered, DeliveredDate: "2024-06-03",
		})
		require.NoError(t, err)

		res, err := w.Delete(ctx, contracts.KindVehicle, v.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{s.ID}, res.Unassigned)
		got, _ := w.Shipments.Get(s.ID)
		assert.Empty(t, got.VehicleID)
		require.NotNil(t, got.TransitDays)
		assert.Equal(t, 2, *got.TransitDays)
	})

	t.Run("vehicle with in-transit shipment is refused", func(t *testing.T) {
		w := newWorkspace(t, storage.NewMemory())
		v, _ := w.Vehicles.Create(ctx, &contracts.Vehicle{
			Registration: "AB-1", Type: "Van", Capacity: 3, Status: contracts.VehicleInTransit,
		})
		_, err := w.Shipments.Create(ctx, &contracts.Shipment{
			VehicleID: v.ID, Origin: "Leeds", Destination: "York", Weight: 1, Value: 100,
			DispatchDate: "2024-06-01", Status: contracts.ShipmentInTransit,
		})
		require.NoError(t, err)

		_, err = w.Delete(ctx, contracts.KindVehicle, v.ID)
		assert.ErrorIs(t, err, contracts.ErrInUse)
		assert.True(t, w.Vehicles.Has(v.ID))
		assert.Equal(t, v.ID, w.Shipments.All()[0].VehicleID)
	})

	t.Run("parent save failure restores dependents", func(t *testing.T) {
		bridge := &flakyBridge{Memory: storage.NewMemory()}
		w := newWorkspace(t, bridge)
		f, _ := w.Funds.Create(ctx, fund("A"))
		inv, err := w.Investments.Create(ctx, activeInvestment(f.ID))
		require.NoError(t, err)

		bridge.failKey = "funds"
		_, err = w.Delete(ctx, contracts.KindFund, f.ID)
		require.Error(t, err)
		assert.True(t, w.Funds.Has(f.ID))
		assert.True(t, w.Investments.Has(inv.ID))

		reloaded := newWorkspace(t, bridge.Memory)
		assert.True(t, reloaded.Investments.Has(inv.ID), "restored state is persisted")
	})

	t.Run("leaf and missing", func(t *testing.T) {
		w := newWorkspace(t, storage.NewMemory())
		f, _ := w.Funds.Create(ctx, fund("A"))
		inv, _ := w.Investments.Create(ctx, activeInvestment(f.ID))

		res, err := w.Delete(ctx, contracts.KindInvestment, inv.ID)
		require.NoError(t, err)
		assert.Empty(t, res.Removed)
		assert.True(t, w.Funds.Has(f.ID))

		_, err = w.Delete(ctx, contracts.KindInvestment, inv.ID)
		assert.ErrorIs(t, err, contracts.ErrNotFound)
	})
}

func TestWorkspace_ListAndGet(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, storage.NewMemory())
	for _, name := range []string{"Bob", "alice", "Carol"} {
		_, err := w.Funds.Create(ctx, fund(name))
		require.NoError(t, err)
	}
	closed := fund("Dave")
	closed.Status = contracts.FundClosed
	_, err := w.Funds.Create(ctx, closed)
	require.NoError(t, err)

	got, err := w.List(contracts.KindFund, collection.Query{
		Filters: []collection.Predicate{collection.Eq("status", "active")},
		Sort:    collection.SortSpec{Key: "name", Dir: collection.Asc},
	})
	require.NoError(t, err)
	var names []string
	for _, e := range got {
		name, _ := e.Field("name")
		names = append(names, name.(string))
	}
	assert.Equal(t, []string{"alice", "Bob", "Carol"}, names)

	e, err := w.Get(contracts.KindFund, got[0].EntityID())
	require.NoError(t, err)
	assert.Equal(t, got[0].EntityID(), e.EntityID())

	_, err = w.Get(contracts.KindFund, "missing")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
	_, err = w.List("planet", collection.Query{})
	assert.Error(t, err)
}

func TestWorkspace_Summary(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, storage.NewMemory())
	f, _ := w.Funds.Create(ctx, fund("A"))
	_, err := w.Investments.Create(ctx, activeInvestment(f.ID))
	require.NoError(t, err)
	_, err = w.Investments.Create(ctx, &contracts.Investment{
		FundID: f.ID, CompanyName: "Bust", Sector: "Retail",
		InvestmentDate: "2020-01-01", InitialInvestment: 20, Ownership: 10,
		Status: contracts.InvestmentWrittenOff, ExitDate: "2021-01-01", ExitValue: f64(0),
	})
	require.NoError(t, err)

	s := w.Summary()
	assert.Equal(t, 1, s.Counts[contracts.KindFund])
	assert.Equal(t, 2, s.Counts[contracts.KindInvestment])
	assert.Equal(t, 1, s.Statuses[contracts.KindInvestment]["Written Off"])
	assert.Equal(t, 0.2, s.Funds.DPI)
	assert.Equal(t, 1.0, s.Funds.TVPI)
	assert.Equal(t, 2, s.Portfolio.Positions)
	assert.Equal(t, 1, s.Portfolio.Realized)
	assert.Equal(t, 30.0, s.Portfolio.Invested)
	assert.Equal(t, 20.0, s.Portfolio.Value)
}

func TestWorkspace_Repair(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	blob := `[{"id":"f1","name":"Alpha","strategy":"Buyout","vintage":2019,"aum":500,"irr":14,"moic":1.6,
		"commitments":450,"called":50,"distributed":10,"nav":40,"status":"Active","dpi":0.9,"tvpi":1.0}]`
	require.NoError(t, mem.Save(ctx, "funds", []byte(blob)))

	w := newWorkspace(t, mem)
	repaired, err := w.Repair(ctx)
	require.NoError(t, err)
	assert.Equal(t, []contracts.Kind{contracts.KindFund}, repaired)
	assert.Empty(t, w.Drift())

	reloaded := newWorkspace(t, mem)
	assert.Empty(t, reloaded.Drift(), "repaired values are persisted")
	f, _ := reloaded.Funds.Get("f1")
	assert.Equal(t, 0.2, f.DPI)
}
