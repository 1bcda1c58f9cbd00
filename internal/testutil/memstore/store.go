package memstore

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"credit-approval-service/internal/domain/customer"
	"credit-approval-service/internal/domain/loan"
	"credit-approval-service/internal/domain/uow"
)

var _ uow.UnitOfWork = (*Store)(nil)

// Store is an in-memory storage fake with per-customer row locks and
// snapshot rollback, so usecase tests can exercise the origination
// transaction — including overlapping requests — without a database.
type Store struct {
	mu        sync.Mutex
	rowLocks  map[uint64]*sync.Mutex
	customers map[uint64]customer.Customer
	loans     map[uint64]loan.Loan
	nextLoan  uint64
}

func New() *Store {
	return &Store{
		rowLocks:  make(map[uint64]*sync.Mutex),
		customers: make(map[uint64]customer.Customer),
		loans:     make(map[uint64]loan.Loan),
	}
}

func (s *Store) SeedCustomer(c customer.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

func (s *Store) SeedLoan(l loan.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == 0 {
		s.nextLoan++
		l.ID = s.nextLoan
	} else if l.ID > s.nextLoan {
		s.nextLoan = l.ID
	}
	s.loans[l.ID] = l
}

func (s *Store) Customer(id uint64) (customer.Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	return c, ok
}

func (s *Store) LoansOf(customerID uint64) []loan.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []loan.Loan
	for _, l := range s.loans {
		if l.CustomerID == customerID {
			out = append(out, l)
		}
	}
	return out
}

// CustomerRepo / LoanRepo expose the fake as plain repositories for the
// read paths (previews, views, ingestion).
func (s *Store) CustomerRepo() customer.Repository { return &customerRepo{s: s} }
func (s *Store) LoanRepo() loan.Repository         { return &loanRepo{s: s} }

func (s *Store) rowLock(id uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rowLocks[id]
	if !ok {
		m = &sync.Mutex{}
		s.rowLocks[id] = m
	}
	return m
}

func (s *Store) snapshot() (map[uint64]customer.Customer, map[uint64]loan.Loan, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs := make(map[uint64]customer.Customer, len(s.customers))
	for k, v := range s.customers {
		cs[k] = v
	}
	ls := make(map[uint64]loan.Loan, len(s.loans))
	for k, v := range s.loans {
		ls[k] = v
	}
	return cs, ls, s.nextLoan
}

func (s *Store) restore(cs map[uint64]customer.Customer, ls map[uint64]loan.Loan, next uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = cs
	s.loans = ls
	s.nextLoan = next
}

func (s *Store) repos() uow.Repos {
	return uow.Repos{Customers: s.CustomerRepo(), Loans: s.LoanRepo()}
}

// WithinTx has no row scope to narrow to, so its rollback restores a
// whole-store snapshot; don't run it concurrently with other writers.
func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	cs, ls, next := s.snapshot()
	if err := fn(s.repos()); err != nil {
		s.restore(cs, ls, next)
		return err
	}
	return nil
}

// snapshotCustomer copies only the rows the transaction may touch: the
// customer row and that customer's loans.
func (s *Store) snapshotCustomer(customerID uint64) (customer.Customer, map[uint64]loan.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls := make(map[uint64]loan.Loan)
	for k, v := range s.loans {
		if v.CustomerID == customerID {
			ls[k] = v
		}
	}
	return s.customers[customerID], ls
}

func (s *Store) restoreCustomer(customerID uint64, c customer.Customer, ls map[uint64]loan.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[customerID] = c
	for k, v := range s.loans {
		if v.CustomerID == customerID {
			delete(s.loans, k)
		}
	}
	for k, v := range ls {
		s.loans[k] = v
	}
}

// WithinCustomerTx serializes per customer id: the row lock is taken
// before the customer is read and held until commit or rollback, exactly
// the ordering the SQL implementation gets from SELECT ... FOR UPDATE.
// Rollback restores only that customer's rows, so a failing transaction
// on one customer never erases another customer's concurrent commit.
func (s *Store) WithinCustomerTx(ctx context.Context, customerID uint64, fn func(r uow.Repos, c *customer.Customer) error) error {
	lock := s.rowLock(customerID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	cur, ok := s.customers[customerID]
	s.mu.Unlock()
	if !ok {
		return gorm.ErrRecordNotFound
	}

	snapC, snapLoans := s.snapshotCustomer(customerID)
	c := cur
	if err := fn(s.repos(), &c); err != nil {
		// nextLoan stays advanced; id gaps are harmless, reuse is not.
		s.restoreCustomer(customerID, snapC, snapLoans)
		return err
	}
	return nil
}

type customerRepo struct{ s *Store }

func (r *customerRepo) Create(ctx context.Context, c *customer.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == 0 {
		c.ID = uint64(len(r.s.customers) + 1)
	}
	r.s.customers[c.ID] = *c
	return nil
}

func (r *customerRepo) GetByID(ctx context.Context, id uint64) (*customer.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *customerRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*customer.Customer, error) {
	return r.GetByID(ctx, id)
}

func (r *customerRepo) Save(ctx context.Context, c *customer.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers[c.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.customers[c.ID] = *c
	return nil
}

type loanRepo struct{ s *Store }

func (r *loanRepo) Create(ctx context.Context, l *loan.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.ID == 0 {
		r.s.nextLoan++
		l.ID = r.s.nextLoan
	} else if l.ID > r.s.nextLoan {
		r.s.nextLoan = l.ID
	}
	r.s.loans[l.ID] = *l
	return nil
}

func (r *loanRepo) GetByID(ctx context.Context, id uint64) (*loan.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *loanRepo) ListByCustomerID(ctx context.Context, customerID uint64) ([]loan.Loan, error) {
	return r.s.LoansOf(customerID), nil
}

func (r *loanRepo) Save(ctx context.Context, l *loan.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.loans[l.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.loans[l.ID] = *l
	return nil
}
