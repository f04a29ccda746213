package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/mmynk/compartilha/internal/api"
	"github.com/mmynk/compartilha/internal/calculator"
	"github.com/mmynk/compartilha/internal/models"
)

// fakeBackend keeps one division in memory and applies mutations to it.
type fakeBackend struct {
	mu sync.Mutex

	division  models.Division
	divisions []models.Division
	scan      models.ScanResult
	errs      map[string]error
	calls     []string

	created      api.CreateDivisionRequest
	shares       []models.Share
	configFee    float64
	configDisc   float64
	deletedID    string
	duplicatedID string
}

var _ Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{errs: map[string]error{}}
}

func (f *fakeBackend) fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = err
}

func (f *fakeBackend) record(op string) error {
	f.calls = append(f.calls, op)
	return f.errs[op]
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeBackend) config() (float64, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configFee, f.configDisc
}

func (f *fakeBackend) CreateDivision(_ context.Context, req api.CreateDivisionRequest) (models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create_division"); err != nil {
		return models.Division{}, err
	}
	f.created = req
	d := models.Division{ID: "divisao_1", Name: req.Name, Status: models.StatusOpen, FeePercent: models.DefaultFeePercent}
	for i, in := range req.Items {
		d.Items = append(d.Items, models.Item{ID: fmt.Sprintf("item_%d", i+1), Name: in.Name, Quantity: in.Quantity, UnitPrice: in.UnitPrice})
	}
	for i, name := range req.PeopleNames {
		d.People = append(d.People, models.Person{ID: fmt.Sprintf("pessoa_%d", i+1), Name: name})
	}
	f.division = d
	return d, nil
}

func (f *fakeBackend) CalculateTotals(_ context.Context, _ string) (models.Totals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("calculate_totals"); err != nil {
		return models.Totals{}, err
	}
	return calculator.CalculateTotals(f.division), nil
}

func (f *fakeBackend) UpdateConfig(_ context.Context, _ string, fee, discount float64) (models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update_config"); err != nil {
		return models.Division{}, err
	}
	f.configFee, f.configDisc = fee, discount
	f.division.FeePercent, f.division.Discount = fee, discount
	return f.division, nil
}

func (f *fakeBackend) Rename(_ context.Context, _ string, name string) (models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("rename"); err != nil {
		return models.Division{}, err
	}
	f.division.Name = name
	return f.division, nil
}

func (f *fakeBackend) DistributeItem(_ context.Context, _ string, itemID string, shares []models.Share) (models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("distribute_item"); err != nil {
		return models.Division{}, err
	}
	f.shares = shares
	for i := range f.division.Items {
		if f.division.Items[i].ID != itemID {
			continue
		}
		assigned := map[string]float64{}
		for _, s := range shares {
			assigned[s.PersonID] = s.Quantity
		}
		f.division.Items[i].AssignedTo = assigned
	}
	return f.division, nil
}

func (f *fakeBackend) AddItem(_ context.Context, _ string, in models.ItemInput) (models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("add_item"); err != nil {
		return models.Division{}, err
	}
	id := fmt.Sprintf("item_%d", len(f.division.Items)+1)
	f.division.Items = append(f.division.Items, models.Item{ID: id, Name: in.Name, Quantity: in.Quantity, UnitPrice: in.UnitPrice})
	return f.division, nil
}

func (f *fakeBackend) EditItem(_ context.Context, _ string, itemID string, in models.ItemInput) (models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("edit_item"); err != nil {
		return models.Division{}, err
	}
	for i := range f.division.Items {
		if f.division.Items[i].ID == itemID {
			f.division.Items[i].Name = in.Name
			f.division.Items[i].Quantity = in.Quantity
			f.division.Items[i].UnitPrice = in.UnitPrice
		}
	}
	return f.division, nil
}

func (f *fakeBackend) DeleteItem(_ context.Context, _ string, itemID string) (models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete_item"); err != nil {
		return models.Division{}, err
	}
	var kept []models.Item
	for _, item := range f.division.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	f.division.Items = kept
	return f.division, nil
}

func (f *fakeBackend) AddPerson(_ context.Context, _ string, name string) (models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("add_person"); err != nil {
		return models.Division{}, err
	}
	id := fmt.Sprintf("pessoa_%d", len(f.division.People)+1)
	f.division.People = append(f.division.People, models.Person{ID: id, Name: name})
	return f.division, nil
}

func (f *fakeBackend) DeletePerson(_ context.Context, _ string, personID string) (models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete_person"); err != nil {
		return models.Division{}, err
	}
	var kept []models.Person
	for _, p := range f.division.People {
		if p.ID != personID {
			kept = append(kept, p)
		}
	}
	f.division.People = kept
	return f.division, nil
}

func (f *fakeBackend) Finalize(_ context.Context, _ string) (models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("finalize"); err != nil {
		return models.Division{}, err
	}
	f.division.Status = models.StatusFinalized
	return f.division, nil
}

func (f *fakeBackend) ListDivisions(_ context.Context) ([]models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list_divisions"); err != nil {
		return nil, err
	}
	return f.divisions, nil
}

func (f *fakeBackend) GetDivision(_ context.Context, divisionID string) (models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get_division"); err != nil {
		return models.Division{}, err
	}
	for _, d := range f.divisions {
		if d.ID == divisionID {
			f.division = d
			return d, nil
		}
	}
	return models.Division{}, &api.Error{Status: 404, Detail: "Divisão não encontrada"}
}

func (f *fakeBackend) DeleteDivision(_ context.Context, divisionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete_division"); err != nil {
		return err
	}
	f.deletedID = divisionID
	return nil
}

func (f *fakeBackend) DuplicateDivision(_ context.Context, divisionID string) (models.Division, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("duplicate_division"); err != nil {
		return models.Division{}, err
	}
	f.duplicatedID = divisionID
	d := f.division
	d.ID = divisionID + "_copia"
	d.Status = models.StatusOpen
	f.division = d
	return d, nil
}

func (f *fakeBackend) ScanReceipt(_ context.Context, _, _ string, _ []byte) (models.ScanResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("scan_receipt"); err != nil {
		return models.ScanResult{}, err
	}
	return f.scan, nil
}
