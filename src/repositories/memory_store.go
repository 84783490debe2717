package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"assetfolio/src/models"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps every table in process memory. Transactions are serialized
// behind one lock and run against a copy of the state that replaces the
// committed state only when the transaction succeeds. Useful for tests and for
// running the service without Postgres.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

type memState struct {
	seq         int
	cash        map[int]models.CashHolding
	stocks      map[int]models.StockHolding
	allocations map[int]models.Allocation
	portfolios  map[int]models.Portfolio
	history     map[historyKey]models.StockPrice
}

type historyKey struct {
	stockID int
	date    string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memState{
			cash:        map[int]models.CashHolding{},
			stocks:      map[int]models.StockHolding{},
			allocations: map[int]models.Allocation{},
			portfolios:  map[int]models.Portfolio{},
			history:     map[historyKey]models.StockPrice{},
		},
		now: time.Now,
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		seq:         s.seq,
		cash:        make(map[int]models.CashHolding, len(s.cash)),
		stocks:      make(map[int]models.StockHolding, len(s.stocks)),
		allocations: make(map[int]models.Allocation, len(s.allocations)),
		portfolios:  make(map[int]models.Portfolio, len(s.portfolios)),
		history:     make(map[historyKey]models.StockPrice, len(s.history)),
	}
	for k, v := range s.cash {
		c.cash[k] = v
	}
	for k, v := range s.stocks {
		c.stocks[k] = v
	}
	for k, v := range s.allocations {
		c.allocations[k] = v
	}
	for k, v := range s.portfolios {
		c.portfolios[k] = v
	}
	for k, v := range s.history {
		c.history[k] = v
	}
	return c
}

func (s *memState) nextID() int {
	s.seq++
	return s.seq
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&memRepos{store: s, tx: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) Cash() CashRepository              { return memCash{&memRepos{store: s}} }
func (s *MemoryStore) Stocks() StockRepository           { return memStocks{&memRepos{store: s}} }
func (s *MemoryStore) Allocations() AllocationRepository { return memAllocations{&memRepos{store: s}} }
func (s *MemoryStore) Portfolios() PortfolioRepository   { return memPortfolios{&memRepos{store: s}} }
func (s *MemoryStore) History() StockHistoryRepository   { return memHistory{&memRepos{store: s}} }

// memRepos works on the transaction copy when tx is set and on the committed
// state, under the store lock, otherwise.
type memRepos struct {
	store *MemoryStore
	tx    *memState
}

func (r *memRepos) Cash() CashRepository              { return memCash{r} }
func (r *memRepos) Stocks() StockRepository           { return memStocks{r} }
func (r *memRepos) Allocations() AllocationRepository { return memAllocations{r} }
func (r *memRepos) Portfolios() PortfolioRepository   { return memPortfolios{r} }
func (r *memRepos) History() StockHistoryRepository   { return memHistory{r} }

func (r *memRepos) read(ctx context.Context, fn func(st *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return fn(r.store.state)
}

func (r *memRepos) write(ctx context.Context, fn func(st *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.state)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type memCash struct{ *memRepos }

func (r memCash) List(ctx context.Context) ([]models.CashHolding, error) {
	var out []models.CashHolding
	err := r.read(ctx, func(st *memState) error {
		for _, h := range st.cash {
			out = append(out, h)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r memCash) GetByID(ctx context.Context, id int) (*models.CashHolding, error) {
	var out *models.CashHolding
	err := r.read(ctx, func(st *memState) error {
		h, ok := st.cash[id]
		if !ok {
			return ErrNotFound
		}
		out = &h
		return nil
	})
	return out, err
}

func (r memCash) GetByBank(ctx context.Context, bankName string) (*models.CashHolding, error) {
	var out *models.CashHolding
	err := r.read(ctx, func(st *memState) error {
		for _, h := range st.cash {
			if strings.EqualFold(h.BankName, bankName) {
				h := h
				out = &h
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (r memCash) Create(ctx context.Context, h *models.CashHolding) error {
	return r.write(ctx, func(st *memState) error {
		for _, existing := range st.cash {
			if strings.EqualFold(existing.BankName, h.BankName) {
				return ErrDuplicate
			}
		}
		h.ID = st.nextID()
		h.CreatedAt = r.store.now()
		st.cash[h.ID] = *h
		return nil
	})
}

func (r memCash) Update(ctx context.Context, h *models.CashHolding) error {
	return r.write(ctx, func(st *memState) error {
		current, ok := st.cash[h.ID]
		if !ok {
			return ErrNotFound
		}
		for _, other := range st.cash {
			if other.ID != h.ID && strings.EqualFold(other.BankName, h.BankName) {
				return ErrDuplicate
			}
		}
		h.CreatedAt = current.CreatedAt
		st.cash[h.ID] = *h
		return nil
	})
}

func (r memCash) LockQuantity(ctx context.Context, id int) (decimal.Decimal, error) {
	h, err := r.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return h.CashAmount, nil
}

func (r memCash) AddQuantity(ctx context.Context, id int, delta decimal.Decimal) error {
	return r.write(ctx, func(st *memState) error {
		h, ok := st.cash[id]
		if !ok {
			return ErrNotFound
		}
		h.CashAmount = h.CashAmount.Add(delta)
		st.cash[id] = h
		return nil
	})
}

func (r memCash) Delete(ctx context.Context, id int) error {
	return r.write(ctx, func(st *memState) error {
		if _, ok := st.cash[id]; !ok {
			return ErrNotFound
		}
		delete(st.cash, id)
		return nil
	})
}

type memStocks struct{ *memRepos }

func (r memStocks) filter(ctx context.Context, keep func(models.StockHolding) bool) ([]models.StockHolding, error) {
	var out []models.StockHolding
	err := r.read(ctx, func(st *memState) error {
		for _, h := range st.stocks {
			if keep(h) {
				out = append(out, h)
			}
		}
		return nil
	})
	return out, err
}

func (r memStocks) List(ctx context.Context) ([]models.StockHolding, error) {
	out, err := r.filter(ctx, func(models.StockHolding) bool { return true })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchaseDate.Equal(out[j].PurchaseDate) {
			return out[i].PurchaseDate.After(out[j].PurchaseDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r memStocks) ListByTicker(ctx context.Context, ticker string) ([]models.StockHolding, error) {
	out, err := r.filter(ctx, func(h models.StockHolding) bool { return h.Ticker == ticker })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r memStocks) GetByID(ctx context.Context, id int) (*models.StockHolding, error) {
	var out *models.StockHolding
	err := r.read(ctx, func(st *memState) error {
		h, ok := st.stocks[id]
		if !ok {
			return ErrNotFound
		}
		out = &h
		return nil
	})
	return out, err
}

func (r memStocks) Create(ctx context.Context, h *models.StockHolding) error {
	return r.write(ctx, func(st *memState) error {
		h.ID = st.nextID()
		h.CreatedAt = r.store.now()
		h.PurchaseDate = dateOnly(h.PurchaseDate)
		st.stocks[h.ID] = *h
		return nil
	})
}

func (r memStocks) Update(ctx context.Context, h *models.StockHolding) error {
	return r.write(ctx, func(st *memState) error {
		current, ok := st.stocks[h.ID]
		if !ok {
			return ErrNotFound
		}
		h.CreatedAt = current.CreatedAt
		h.PurchaseDate = dateOnly(h.PurchaseDate)
		st.stocks[h.ID] = *h
		return nil
	})
}

func (r memStocks) SetCurrentPrice(ctx context.Context, id int, price decimal.Decimal) error {
	return r.write(ctx, func(st *memState) error {
		h, ok := st.stocks[id]
		if !ok {
			return ErrNotFound
		}
		h.CurrentPrice = price
		st.stocks[id] = h
		return nil
	})
}

func (r memStocks) LockQuantity(ctx context.Context, id int) (decimal.Decimal, error) {
	h, err := r.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return h.Quantity, nil
}

func (r memStocks) AddQuantity(ctx context.Context, id int, delta decimal.Decimal) error {
	return r.write(ctx, func(st *memState) error {
		h, ok := st.stocks[id]
		if !ok {
			return ErrNotFound
		}
		h.Quantity = h.Quantity.Add(delta)
		st.stocks[id] = h
		return nil
	})
}

func (r memStocks) Delete(ctx context.Context, id int) error {
	return r.write(ctx, func(st *memState) error {
		if _, ok := st.stocks[id]; !ok {
			return ErrNotFound
		}
		delete(st.stocks, id)
		for k := range st.history {
			if k.stockID == id {
				delete(st.history, k)
			}
		}
		return nil
	})
}

type memAllocations struct{ *memRepos }

func (r memAllocations) filter(ctx context.Context, keep func(models.Allocation) bool) ([]models.Allocation, error) {
	var out []models.Allocation
	err := r.read(ctx, func(st *memState) error {
		for _, a := range st.allocations {
			if keep(a) {
				out = append(out, a)
			}
		}
		return nil
	})
	return out, err
}

func (r memAllocations) List(ctx context.Context) ([]models.Allocation, error) {
	out, err := r.filter(ctx, func(models.Allocation) bool { return true })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r memAllocations) ListByPortfolio(ctx context.Context, portfolioID int) ([]models.Allocation, error) {
	out, err := r.filter(ctx, func(a models.Allocation) bool { return a.PortfolioID == portfolioID })
	sort.Slice(out, func(i, j int) bool {
		if out[i].AssetType != out[j].AssetType {
			return out[i].AssetType < out[j].AssetType
		}
		return out[i].AssetID < out[j].AssetID
	})
	return out, err
}

func (r memAllocations) GetByID(ctx context.Context, id int) (*models.Allocation, error) {
	var out *models.Allocation
	err := r.read(ctx, func(st *memState) error {
		a, ok := st.allocations[id]
		if !ok {
			return ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r memAllocations) FindByPortfolioAsset(ctx context.Context, portfolioID int, assetType models.AssetType, assetID int) (*models.Allocation, error) {
	out, err := r.filter(ctx, func(a models.Allocation) bool {
		return a.PortfolioID == portfolioID && a.AssetType == assetType && a.AssetID == assetID
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (r memAllocations) SumQuantity(ctx context.Context, assetType models.AssetType, assetID int, excludeID int) (decimal.Decimal, error) {
	out, err := r.filter(ctx, func(a models.Allocation) bool {
		return a.AssetType == assetType && a.AssetID == assetID && a.ID != excludeID
	})
	total := decimal.Zero
	for _, a := range out {
		total = total.Add(a.Quantity)
	}
	return total, err
}

func (r memAllocations) PortfolioNamesForAsset(ctx context.Context, assetType models.AssetType, assetID int) ([]string, error) {
	var names []string
	err := r.read(ctx, func(st *memState) error {
		for _, a := range st.allocations {
			if a.AssetType != assetType || a.AssetID != assetID {
				continue
			}
			if p, ok := st.portfolios[a.PortfolioID]; ok {
				names = append(names, p.Name)
			}
		}
		return nil
	})
	sort.Strings(names)
	return names, err
}

func (r memAllocations) Create(ctx context.Context, a *models.Allocation) error {
	return r.write(ctx, func(st *memState) error {
		if _, ok := st.portfolios[a.PortfolioID]; !ok {
			return ErrNotFound
		}
		for _, existing := range st.allocations {
			if existing.PortfolioID == a.PortfolioID && existing.AssetType == a.AssetType && existing.AssetID == a.AssetID {
				return ErrDuplicate
			}
		}
		a.ID = st.nextID()
		st.allocations[a.ID] = *a
		return nil
	})
}

func (r memAllocations) UpdateQuantity(ctx context.Context, id int, quantity decimal.Decimal) error {
	return r.write(ctx, func(st *memState) error {
		a, ok := st.allocations[id]
		if !ok {
			return ErrNotFound
		}
		a.Quantity = quantity
		st.allocations[id] = a
		return nil
	})
}

func (r memAllocations) Delete(ctx context.Context, id int) error {
	return r.write(ctx, func(st *memState) error {
		if _, ok := st.allocations[id]; !ok {
			return ErrNotFound
		}
		delete(st.allocations, id)
		return nil
	})
}

func (r memAllocations) deleteWhere(ctx context.Context, match func(models.Allocation) bool) (int64, error) {
	var n int64
	err := r.write(ctx, func(st *memState) error {
		for id, a := range st.allocations {
			if match(a) {
				delete(st.allocations, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r memAllocations) DeleteByPortfolio(ctx context.Context, portfolioID int) (int64, error) {
	return r.deleteWhere(ctx, func(a models.Allocation) bool { return a.PortfolioID == portfolioID })
}

func (r memAllocations) DeleteByAsset(ctx context.Context, assetType models.AssetType, assetID int) (int64, error) {
	return r.deleteWhere(ctx, func(a models.Allocation) bool { return a.AssetType == assetType && a.AssetID == assetID })
}

type memPortfolios struct{ *memRepos }

func (r memPortfolios) List(ctx context.Context) ([]models.Portfolio, error) {
	var out []models.Portfolio
	err := r.read(ctx, func(st *memState) error {
		for _, p := range st.portfolios {
			out = append(out, p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (r memPortfolios) GetByID(ctx context.Context, id int) (*models.Portfolio, error) {
	var out *models.Portfolio
	err := r.read(ctx, func(st *memState) error {
		p, ok := st.portfolios[id]
		if !ok {
			return ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

// LockByID is GetByID: a memory transaction already holds the store lock.
func (r memPortfolios) LockByID(ctx context.Context, id int) (*models.Portfolio, error) {
	return r.GetByID(ctx, id)
}

func (r memPortfolios) Create(ctx context.Context, p *models.Portfolio) error {
	return r.write(ctx, func(st *memState) error {
		p.ID = st.nextID()
		p.CreatedAt = r.store.now()
		st.portfolios[p.ID] = *p
		return nil
	})
}

func (r memPortfolios) Rename(ctx context.Context, id int, name string) error {
	return r.write(ctx, func(st *memState) error {
		p, ok := st.portfolios[id]
		if !ok {
			return ErrNotFound
		}
		p.Name = name
		st.portfolios[id] = p
		return nil
	})
}

func (r memPortfolios) Delete(ctx context.Context, id int) error {
	return r.write(ctx, func(st *memState) error {
		if _, ok := st.portfolios[id]; !ok {
			return ErrNotFound
		}
		delete(st.portfolios, id)
		return nil
	})
}

type memHistory struct{ *memRepos }

func (r memHistory) Upsert(ctx context.Context, stockID int, date time.Time, price decimal.Decimal) error {
	return r.write(ctx, func(st *memState) error {
		if _, ok := st.stocks[stockID]; !ok {
			return ErrNotFound
		}
		day := dateOnly(date)
		key := historyKey{stockID: stockID, date: day.Format("2006-01-02")}
		p, ok := st.history[key]
		if !ok {
			p = models.StockPrice{ID: st.nextID(), StockID: stockID, RecordDate: day}
		}
		p.CurrentPrice = price
		st.history[key] = p
		return nil
	})
}

func (r memHistory) ListByStock(ctx context.Context, stockID int, since time.Time) ([]models.StockPrice, error) {
	from := dateOnly(since)
	var out []models.StockPrice
	err := r.read(ctx, func(st *memState) error {
		for k, p := range st.history {
			if k.stockID == stockID && !p.RecordDate.Before(from) {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RecordDate.Before(out[j].RecordDate) })
	return out, err
}

func (r memHistory) DeleteByStock(ctx context.Context, stockID int) error {
	return r.write(ctx, func(st *memState) error {
		for k := range st.history {
			if k.stockID == stockID {
				delete(st.history, k)
			}
		}
		return nil
	})
}
