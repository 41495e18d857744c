package inmemory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	consumptiondomain "carbon-tracker-go/internal/domain/consumption"
)

// ConsumptionStore keeps consumption rows in memory and joins them against a
// CatalogStore on read, the way the SQL store preloads its relations.
type ConsumptionStore struct {
	mu      sync.RWMutex
	rows    map[int64]consumptiondomain.Row
	nextID  int64
	catalog *CatalogStore
	now     func() time.Time
}

func NewConsumptionStore(catalog *CatalogStore) *ConsumptionStore {
	return &ConsumptionStore{
		rows:    make(map[int64]consumptiondomain.Row),
		nextID:  1,
		catalog: catalog,
		now:     time.Now,
	}
}

func (s *ConsumptionStore) QueryPage(_ context.Context, query consumptiondomain.Query) ([]consumptiondomain.Row, consumptiondomain.PaginationMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]consumptiondomain.Row, 0)
	for _, row := range s.rows {
		ok, err := matches(row, query.Filters)
		if err != nil {
			return nil, consumptiondomain.PaginationMeta{}, err
		}
		if ok {
			matched = append(matched, row)
		}
	}

	column, err := flatColumn(query.OrderBy)
	if err != nil {
		return nil, consumptiondomain.PaginationMeta{}, err
	}
	slices.SortFunc(matched, func(a, b consumptiondomain.Row) int {
		c := column(a, b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if !query.Ascending {
			return -c
		}
		return c
	})

	total := int64(len(matched))
	offset := min(query.Offset(), len(matched))
	end := offset + min(max(query.Limit, 0), len(matched)-offset)

	page := make([]consumptiondomain.Row, 0, end-offset)
	for _, row := range matched[offset:end] {
		page = append(page, s.join(row, query.Joins))
	}
	return page, consumptiondomain.NewPaginationMeta(total, query.Page, query.Limit), nil
}

func (s *ConsumptionStore) GetRow(_ context.Context, id int64) (*consumptiondomain.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, consumptiondomain.ErrConsumptionNotFound
	}
	joined := s.join(row, []string{consumptiondomain.TableActivity, consumptiondomain.TableUnit})
	return &joined, nil
}

func (s *ConsumptionStore) InsertRow(ctx context.Context, record *consumptiondomain.Record) (*consumptiondomain.Row, error) {
	s.mu.Lock()
	amount := record.Amount
	co2 := record.CO2Equivalent
	row := consumptiondomain.Row{
		ID:                  s.nextID,
		UserID:              record.UserID,
		Amount:              &amount,
		ActivityTypeTableID: record.ActivityTypeTableID,
		UnitID:              cloneInt(record.UnitID),
		CO2Equivalent:       &co2,
		Date:                record.Date,
		CreatedAt:           s.now().UTC(),
	}
	s.nextID++
	s.rows[row.ID] = row
	s.mu.Unlock()

	return s.GetRow(ctx, row.ID)
}

func (s *ConsumptionStore) UpdateRow(ctx context.Context, id int64, patch consumptiondomain.RowPatch) (*consumptiondomain.Row, error) {
	if patch.IsEmpty() {
		return nil, consumptiondomain.ErrEmptyPatch
	}

	s.mu.Lock()
	row, ok := s.rows[id]
	if !ok {
		s.mu.Unlock()
		return nil, consumptiondomain.ErrConsumptionNotFound
	}
	if patch.Amount != nil {
		amount := *patch.Amount
		row.Amount = &amount
	}
	if patch.ActivityTypeTableID != nil {
		row.ActivityTypeTableID = *patch.ActivityTypeTableID
	}
	if patch.UnitID != nil {
		row.UnitID = cloneInt(patch.UnitID)
	}
	if patch.CO2Equivalent != nil {
		co2 := *patch.CO2Equivalent
		row.CO2Equivalent = &co2
	}
	if patch.Date != nil {
		row.Date = *patch.Date
	}
	s.rows[id] = row
	s.mu.Unlock()

	return s.GetRow(ctx, id)
}

func (s *ConsumptionStore) DeleteRow(_ context.Context, id int64) (consumptiondomain.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return consumptiondomain.DeleteResult{Success: false, ID: id}, nil
	}
	delete(s.rows, id)
	return consumptiondomain.DeleteResult{Success: true, ID: id}, nil
}

// Rows returns a snapshot of every stored row without joins.
func (s *ConsumptionStore) Rows() []consumptiondomain.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]consumptiondomain.Row, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, row)
	}
	return rows
}

func (s *ConsumptionStore) join(row consumptiondomain.Row, tables []string) consumptiondomain.Row {
	if s.catalog == nil {
		return row
	}

	s.catalog.mu.RLock()
	defer s.catalog.mu.RUnlock()

	if slices.Contains(tables, consumptiondomain.TableActivity) {
		if activity, ok := s.catalog.activityTypes[row.ActivityTypeTableID]; ok {
			factor := activity.EmissionFactor
			row.Activity = &consumptiondomain.ActivityRef{
				ID:             activity.ID,
				Name:           activity.Name,
				EmissionFactor: &factor,
				ActivityTypeID: cloneInt(activity.ActivityTypeID),
			}
		}
	}
	if slices.Contains(tables, consumptiondomain.TableUnit) && row.UnitID != nil {
		if unit, ok := s.catalog.units[*row.UnitID]; ok {
			row.Unit = &consumptiondomain.UnitRef{ID: unit.ID, Name: unit.Name}
		}
	}
	return row
}

func matches(row consumptiondomain.Row, filters consumptiondomain.Filters) (bool, error) {
	for predicate, value := range filters {
		ok, err := matchesOne(row, predicate, value)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchesOne(row consumptiondomain.Row, predicate consumptiondomain.Predicate, value any) (bool, error) {
	switch predicate {
	case consumptiondomain.PredicateUserID, consumptiondomain.PredicateActivityType:
		id, ok := value.(int64)
		if !ok {
			return false, operandError(predicate, value)
		}
		if predicate == consumptiondomain.PredicateUserID {
			return row.UserID == id, nil
		}
		return row.ActivityTypeTableID == id, nil
	case consumptiondomain.PredicateGteDate, consumptiondomain.PredicateLteDate:
		date, ok := value.(time.Time)
		if !ok {
			return false, operandError(predicate, value)
		}
		if predicate == consumptiondomain.PredicateGteDate {
			return !row.Date.Before(date), nil
		}
		return !row.Date.After(date), nil
	case consumptiondomain.PredicateGteAmount, consumptiondomain.PredicateLteAmount:
		bound, ok := value.(float64)
		if !ok {
			return false, operandError(predicate, value)
		}
		if row.Amount == nil {
			return false, nil
		}
		if predicate == consumptiondomain.PredicateGteAmount {
			return *row.Amount >= bound, nil
		}
		return *row.Amount <= bound, nil
	default:
		return false, fmt.Errorf("unsupported predicate %q", predicate)
	}
}

func operandError(predicate consumptiondomain.Predicate, value any) error {
	return fmt.Errorf("predicate %q: unexpected operand %T", predicate, value)
}

func flatColumn(name string) (func(a, b consumptiondomain.Row) int, error) {
	switch name {
	case "id":
		return func(a, b consumptiondomain.Row) int { return cmp.Compare(a.ID, b.ID) }, nil
	case "user_id":
		return func(a, b consumptiondomain.Row) int { return cmp.Compare(a.UserID, b.UserID) }, nil
	case "amount":
		return func(a, b consumptiondomain.Row) int { return compareOptional(a.Amount, b.Amount) }, nil
	case "activity_type_table_id":
		return func(a, b consumptiondomain.Row) int { return cmp.Compare(a.ActivityTypeTableID, b.ActivityTypeTableID) }, nil
	case "unit_id":
		return func(a, b consumptiondomain.Row) int { return compareOptional(a.UnitID, b.UnitID) }, nil
	case "co2_equivalent":
		return func(a, b consumptiondomain.Row) int { return compareOptional(a.CO2Equivalent, b.CO2Equivalent) }, nil
	case "date":
		return func(a, b consumptiondomain.Row) int { return a.Date.Compare(b.Date) }, nil
	case "created_at":
		return func(a, b consumptiondomain.Row) int { return a.CreatedAt.Compare(b.CreatedAt) }, nil
	default:
		return nil, fmt.Errorf("unsupported order column %q", name)
	}
}

// compareOptional orders nil above every value, as Postgres does: NULLS LAST
// ascending, NULLS FIRST descending.
func compareOptional[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return cmp.Compare(*a, *b)
	}
}

func cloneInt(value *int64) *int64 {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
