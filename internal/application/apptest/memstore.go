// Package apptest provee un almacén en memoria que implementa los puertos de
// persistencia y el TxRunner para pruebas de los casos de uso sin PostgreSQL.
// Las transacciones se serializan con un mutex y se revierten por snapshot,
// imitando el Commit/Rollback real.
package apptest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/wms-api/internal/application/movement"
	"github.com/jhoicas/wms-api/internal/domain"
	"github.com/jhoicas/wms-api/internal/domain/entity"
	"github.com/jhoicas/wms-api/internal/domain/repository"
)

var _ movement.TxRunner = (*Store)(nil)

// Store almacén en memoria compartido por todos los repos fake.
type Store struct {
	mu   sync.Mutex // protege el estado
	txMu sync.Mutex // serializa transacciones como lo haría la BD

	warehouses map[string]*entity.Warehouse
	locations  map[int64]*entity.Location
	balances   map[string]*entity.StockBalance
	movements  []*entity.Movement
	sessions   map[int64]*entity.CountSession
	details    map[int64]*entity.CountDetail
	audit      []*entity.AuditEntry

	nextWarehouseID int64
	nextLocationID  int64
	nextBalanceID   int64
	nextMovementID  int64
	nextSessionID   int64
	nextDetailID    int64
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		warehouses: make(map[string]*entity.Warehouse),
		locations:  make(map[int64]*entity.Location),
		balances:   make(map[string]*entity.StockBalance),
		sessions:   make(map[int64]*entity.CountSession),
		details:    make(map[int64]*entity.CountDetail),
	}
}

func balanceKey(locationID int64, item, lot string) string {
	return fmt.Sprintf("%d|%s|%s", locationID, item, lot)
}

// ── Siembra y lecturas de apoyo para asserts ─────────────────────────────────

// SeedWarehouse agrega una bodega activa.
func (s *Store) SeedWarehouse(whsCode string) *entity.Warehouse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextWarehouseID++
	w := &entity.Warehouse{ID: s.nextWarehouseID, WhsCode: whsCode, Name: whsCode, Active: true}
	s.warehouses[whsCode] = w
	return w
}

// SeedLocation agrega una ubicación y devuelve su ID.
func (s *Store) SeedLocation(loc *entity.Location) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLocationID++
	loc.ID = s.nextLocationID
	cp := *loc
	s.locations[loc.ID] = &cp
	return loc.ID
}

// SeedBalance fija el saldo de un ítem/lote en una ubicación.
func (s *Store) SeedBalance(whs string, locationID int64, item, lot string, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBalanceID++
	s.balances[balanceKey(locationID, item, lot)] = &entity.StockBalance{
		ID: s.nextBalanceID, WhsCode: whs, LocationID: locationID,
		ItemCode: item, LotNo: lot, Qty: qty, LastUpdated: time.Now().UTC(),
	}
}

// BalanceQty devuelve el saldo actual (cero si no hay fila).
func (s *Store) BalanceQty(locationID int64, item, lot string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.balances[balanceKey(locationID, item, lot)]; ok {
		return b.Qty
	}
	return decimal.Zero
}

// Movements devuelve una copia del libro de movimientos.
func (s *Store) Movements() []*entity.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Movement, len(s.movements))
	copy(out, s.movements)
	return out
}

// AuditEntries devuelve una copia del rastro de auditoría.
func (s *Store) AuditEntries() []*entity.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

// Detail devuelve una copia de una línea de conteo.
func (s *Store) Detail(id int64) *entity.CountDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.details[id]; ok {
		cp := *d
		return &cp
	}
	return nil
}

// ── Constructores de repos fake ───────────────────────────────────────────────

func (s *Store) Warehouses() repository.WarehouseRepository { return &warehouseRepo{s} }
func (s *Store) Locations() repository.LocationRepository   { return &locationRepo{s} }
func (s *Store) Stocks() repository.StockRepository         { return &stockRepo{s} }
func (s *Store) MovementLog() repository.MovementRepository { return &movementRepo{s} }
func (s *Store) Counts() repository.CountRepository         { return &countRepo{s} }
func (s *Store) Audits() repository.AuditRepository         { return &auditRepo{s} }

// ── TxRunner ──────────────────────────────────────────────────────────────────

type snapshot struct {
	balances     map[string]*entity.StockBalance
	movementsLen int
	sessions     map[int64]*entity.CountSession
	details      map[int64]*entity.CountDetail
	nextBalance  int64
	nextMovement int64
	nextSession  int64
	nextDetail   int64
}

func (s *Store) take() *snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := &snapshot{
		balances:     make(map[string]*entity.StockBalance, len(s.balances)),
		movementsLen: len(s.movements),
		sessions:     make(map[int64]*entity.CountSession, len(s.sessions)),
		details:      make(map[int64]*entity.CountDetail, len(s.details)),
		nextBalance:  s.nextBalanceID,
		nextMovement: s.nextMovementID,
		nextSession:  s.nextSessionID,
		nextDetail:   s.nextDetailID,
	}
	for k, b := range s.balances {
		cp := *b
		snap.balances[k] = &cp
	}
	for k, sess := range s.sessions {
		cp := *sess
		snap.sessions[k] = &cp
	}
	for k, d := range s.details {
		cp := *d
		snap.details[k] = &cp
	}
	return snap
}

func (s *Store) restore(snap *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = snap.balances
	s.movements = s.movements[:snap.movementsLen]
	s.sessions = snap.sessions
	s.details = snap.details
	s.nextBalanceID = snap.nextBalance
	s.nextMovementID = snap.nextMovement
	s.nextSessionID = snap.nextSession
	s.nextDetailID = snap.nextDetail
}

// Run ejecuta fn de forma serializada y revierte todo el estado si falla.
func (s *Store) Run(ctx context.Context, fn func(
	locRepo repository.LocationRepository,
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.take()
	if err := fn(s.Locations(), s.Stocks(), s.MovementLog()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// RunCount igual que Run, agregando el repo de conteos a la transacción.
func (s *Store) RunCount(ctx context.Context, fn func(
	locRepo repository.LocationRepository,
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	countRepo repository.CountRepository,
) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.take()
	if err := fn(s.Locations(), s.Stocks(), s.MovementLog(), s.Counts()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// ── WarehouseRepository ───────────────────────────────────────────────────────

type warehouseRepo struct{ s *Store }

func (r *warehouseRepo) Create(w *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.warehouses[w.WhsCode]; ok {
		return domain.ErrDuplicate
	}
	r.s.nextWarehouseID++
	w.ID = r.s.nextWarehouseID
	cp := *w
	r.s.warehouses[w.WhsCode] = &cp
	return nil
}

func (r *warehouseRepo) GetByCode(whsCode string) (*entity.Warehouse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if w, ok := r.s.warehouses[whsCode]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, fmt.Errorf("bodega %s: %w", whsCode, domain.ErrNotFound)
}

func (r *warehouseRepo) List(activeOnly bool) ([]*entity.Warehouse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Warehouse
	for _, w := range r.s.warehouses {
		if activeOnly && !w.Active {
			continue
		}
		cp := *w
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WhsCode < out[j].WhsCode })
	return out, nil
}

// ── LocationRepository ────────────────────────────────────────────────────────

type locationRepo struct{ s *Store }

func (r *locationRepo) Create(loc *entity.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.locations {
		if l.WhsCode == loc.WhsCode && l.Code == loc.Code {
			return domain.ErrDuplicate
		}
	}
	r.s.nextLocationID++
	loc.ID = r.s.nextLocationID
	cp := *loc
	r.s.locations[loc.ID] = &cp
	return nil
}

func (r *locationRepo) get(id int64) (*entity.Location, error) {
	if l, ok := r.s.locations[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, fmt.Errorf("ubicacion %d: %w", id, domain.ErrNotFound)
}

func (r *locationRepo) GetByID(id int64) (*entity.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(id)
}

func (r *locationRepo) GetForUpdate(id int64) (*entity.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(id)
}

func (r *locationRepo) Exists(whsCode, code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.locations {
		if l.WhsCode == whsCode && l.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *locationRepo) ListByWarehouse(whsCode string, f repository.LocationFilter) ([]*entity.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Location
	for _, l := range r.s.locations {
		if l.WhsCode != whsCode {
			continue
		}
		if f.CodeLike != "" && !strings.Contains(l.Code, f.CodeLike) {
			continue
		}
		if f.Type != "" && l.Type != f.Type {
			continue
		}
		if f.ActiveOnly && !l.IsActive {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *locationRepo) Search(q, whsCode, locType string, limit int) ([]*entity.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Location
	for _, l := range r.s.locations {
		if !l.IsActive {
			continue
		}
		if !strings.Contains(l.Code, q) && !strings.Contains(l.Name, q) {
			continue
		}
		if whsCode != "" && l.WhsCode != whsCode {
			continue
		}
		if locType != "" && l.Type != locType {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *locationRepo) Update(loc *entity.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.locations[loc.ID]; !ok {
		return fmt.Errorf("ubicacion %d: %w", loc.ID, domain.ErrNotFound)
	}
	cp := *loc
	r.s.locations[loc.ID] = &cp
	return nil
}

// ── StockRepository ───────────────────────────────────────────────────────────

type stockRepo struct{ s *Store }

func (r *stockRepo) get(locationID int64, item, lot string) *entity.StockBalance {
	if b, ok := r.s.balances[balanceKey(locationID, item, lot)]; ok {
		cp := *b
		return &cp
	}
	return &entity.StockBalance{LocationID: locationID, ItemCode: item, LotNo: lot, Qty: decimal.Zero}
}

func (r *stockRepo) Get(locationID int64, item, lot string) (*entity.StockBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(locationID, item, lot), nil
}

func (r *stockRepo) GetForUpdate(locationID int64, item, lot string) (*entity.StockBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(locationID, item, lot), nil
}

func (r *stockRepo) Upsert(balance *entity.StockBalance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := balanceKey(balance.LocationID, balance.ItemCode, balance.LotNo)
	if _, ok := r.s.balances[key]; !ok {
		r.s.nextBalanceID++
		balance.ID = r.s.nextBalanceID
	}
	cp := *balance
	r.s.balances[key] = &cp
	return nil
}

func (r *stockRepo) AggregateQty(locationID int64) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, b := range r.s.balances {
		if b.LocationID == locationID {
			total = total.Add(b.Qty)
		}
	}
	return total, nil
}

func (r *stockRepo) DistinctTuples(locationID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, b := range r.s.balances {
		if b.LocationID == locationID && b.Qty.IsPositive() {
			n++
		}
	}
	return n, nil
}

func (r *stockRepo) ListByLocation(locationID int64) ([]*entity.StockBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StockBalance
	for _, b := range r.s.balances {
		if b.LocationID == locationID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemCode < out[j].ItemCode })
	return out, nil
}

func (r *stockRepo) ListByItem(whsCode, itemCode string) ([]*entity.StockBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StockBalance
	for _, b := range r.s.balances {
		if b.WhsCode == whsCode && b.ItemCode == itemCode {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out, nil
}

func (r *stockRepo) Summary(whsCode, itemCode string) (*repository.StockSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s := &repository.StockSummary{WhsCode: whsCode, ItemCode: itemCode, TotalQty: decimal.Zero}
	locs := make(map[int64]bool)
	for _, b := range r.s.balances {
		if b.WhsCode != whsCode || b.ItemCode != itemCode {
			continue
		}
		s.TotalQty = s.TotalQty.Add(b.Qty)
		if b.ItemName != "" {
			s.ItemName = b.ItemName
		}
		if b.UoM != "" {
			s.UoM = b.UoM
		}
		if b.Qty.IsPositive() {
			locs[b.LocationID] = true
		}
	}
	s.LocationCount = len(locs)
	return s, nil
}

func (r *stockRepo) LowUtilization(whsCode string, thresholdPct float64) ([]*repository.LocationUtilization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	threshold := decimal.NewFromFloat(thresholdPct)
	var out []*repository.LocationUtilization
	for _, l := range r.s.locations {
		if l.WhsCode != whsCode || !l.IsActive || l.CapacityQty == nil || !l.CapacityQty.IsPositive() {
			continue
		}
		current := decimal.Zero
		for _, b := range r.s.balances {
			if b.LocationID == l.ID {
				current = current.Add(b.Qty)
			}
		}
		pct := current.Div(*l.CapacityQty).Mul(decimal.NewFromInt(100)).Round(2)
		if pct.LessThan(threshold) {
			out = append(out, &repository.LocationUtilization{
				LocationID:     l.ID,
				LocationCode:   l.Code,
				CapacityQty:    *l.CapacityQty,
				CapacityUoM:    l.CapacityUoM,
				CurrentQty:     current,
				UtilizationPct: pct,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationCode < out[j].LocationCode })
	return out, nil
}

// ── MovementRepository ────────────────────────────────────────────────────────

type movementRepo struct{ s *Store }

func (r *movementRepo) Create(m *entity.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextMovementID++
	m.ID = r.s.nextMovementID
	cp := *m
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r *movementRepo) List(f repository.MovementFilter) ([]*entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Movement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if f.WhsCode != "" && m.FromWhs != f.WhsCode && m.ToWhs != f.WhsCode {
			continue
		}
		if f.ItemCode != "" && m.ItemCode != f.ItemCode {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		cp := *m
		out = append(out, &cp)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (r *movementRepo) SetERPDoc(reference, docType string, docEntry int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.movements {
		if m.Reference == reference && m.ERPDocEntry == nil {
			m.ERPDocType = docType
			entry := docEntry
			m.ERPDocEntry = &entry
		}
	}
	return nil
}

// ── CountRepository ───────────────────────────────────────────────────────────

type countRepo struct{ s *Store }

func (r *countRepo) CreateSession(sess *entity.CountSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextSessionID++
	sess.ID = r.s.nextSessionID
	cp := *sess
	r.s.sessions[sess.ID] = &cp
	return nil
}

func (r *countRepo) GetSession(id int64) (*entity.CountSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sess, ok := r.s.sessions[id]; ok {
		cp := *sess
		return &cp, nil
	}
	return nil, fmt.Errorf("sesion de conteo %d: %w", id, domain.ErrNotFound)
}

func (r *countRepo) ListSessions(whsCode, status string, limit int) ([]*entity.CountSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.CountSession
	for _, sess := range r.s.sessions {
		if whsCode != "" && sess.WhsCode != whsCode {
			continue
		}
		if status != "" && sess.Status != status {
			continue
		}
		cp := *sess
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *countRepo) UpdateSessionStatus(id int64, status string, closedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return fmt.Errorf("sesion de conteo %d: %w", id, domain.ErrNotFound)
	}
	if sess.Status != entity.CountStatusOpen {
		return fmt.Errorf("sesion de conteo %d no está abierta: %w", id, domain.ErrInvalidState)
	}
	sess.Status = status
	sess.ClosedAt = &closedAt
	return nil
}

func (r *countRepo) CreateDetail(d *entity.CountDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextDetailID++
	d.ID = r.s.nextDetailID
	cp := *d
	r.s.details[d.ID] = &cp
	return nil
}

func (r *countRepo) GetDetail(id int64) (*entity.CountDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d, ok := r.s.details[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, fmt.Errorf("linea de conteo %d: %w", id, domain.ErrNotFound)
}

func (r *countRepo) ListDetails(sessionID int64) ([]*entity.CountDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.CountDetail
	for _, d := range r.s.details {
		if d.SessionID == sessionID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *countRepo) SetCountedQty(detailID int64, qty decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.details[detailID]
	if !ok {
		return fmt.Errorf("linea de conteo %d: %w", detailID, domain.ErrNotFound)
	}
	d.CountedQty = &qty
	return nil
}

func (r *countRepo) MarkAdjusted(detailID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.details[detailID]
	if !ok {
		return fmt.Errorf("linea de conteo %d: %w", detailID, domain.ErrNotFound)
	}
	d.Adjusted = true
	return nil
}

// ── AuditRepository ───────────────────────────────────────────────────────────

type auditRepo struct{ s *Store }

func (r *auditRepo) Append(e *entity.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *e
	cp.ID = int64(len(r.s.audit) + 1)
	r.s.audit = append(r.s.audit, &cp)
	return nil
}

func (r *auditRepo) List(userName, action string, limit int) ([]*entity.AuditEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.AuditEntry
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		e := r.s.audit[i]
		if userName != "" && e.UserName != userName {
			continue
		}
		if action != "" && e.Action != action {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
