package consumption

import (
	"context"
	"errors"
	"time"

	catalogdomain "carbon-tracker-go/internal/domain/catalog"
	"carbon-tracker-go/internal/validation"
	"carbon-tracker-go/pkg/logger"
)

const (
	stageValidate  = "validate"
	stageQuery     = "query"
	stageTransform = "transform"
)

// ActivityCatalog resolves the emission factor used when writing a record.
type ActivityCatalog interface {
	GetActivityType(ctx context.Context, id int64) (*catalogdomain.ActivityType, error)
}

const defaultExportLimit = 5000

type Service struct {
	repo        Repository
	catalog     ActivityCatalog
	defaults    QueryDefaults
	exportLimit int
	observer    Observer
	log         logger.Logger
	now         func() time.Time
}

type Option func(*Service)

func WithDefaults(defaults QueryDefaults) Option {
	return func(s *Service) {
		s.defaults = defaults.normalized()
	}
}

func WithExportLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.exportLimit = limit
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(s *Service) {
		if observer != nil {
			s.observer = observer
		}
	}
}

func NewService(repo Repository, catalog ActivityCatalog, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		catalog:     catalog,
		defaults:    DefaultQueryDefaults(),
		exportLimit: defaultExportLimit,
		observer:    noopObserver{},
		log:         log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Defaults() QueryDefaults {
	return s.defaults
}

// GetUserConsumption runs the listing pipeline: normalize, translate, fetch,
// post-process. Nothing reaches the store when the user id is invalid, and
// any failure returns no partial page.
func (s *Service) GetUserConsumption(ctx context.Context, params QueryParams) (ListResult, error) {
	return s.list(ctx, params, s.defaults)
}

func (s *Service) list(ctx context.Context, params QueryParams, defaults QueryDefaults) (ListResult, error) {
	started := s.now()

	filters, err := NormalizeFilters(params)
	if err != nil {
		s.observer.QueryFailed(stageValidate)
		return ListResult{}, err
	}

	plan := Translate(filters, params.Page, params.Limit, params.SortBy, params.SortOrder, defaults)

	rows, meta, err := s.repo.QueryPage(ctx, plan.Query)
	if err != nil {
		s.observer.QueryFailed(stageQuery)
		s.log.InternalError("consumption.list: store query failed", err,
			"table", plan.Query.Table, "filters", describeFilters(filters))
		return ListResult{}, &UpstreamQueryError{Table: plan.Query.Table, Filters: filters, Err: err}
	}

	result, stats, err := PostProcess(rows, PostProcessOptions{
		Sort:                 plan.Sort,
		Order:                plan.Order,
		RequiresInMemorySort: plan.RequiresInMemorySort,
		CO2Min:               params.CO2Min,
		CO2Max:               params.CO2Max,
		Limit:                plan.Query.Limit,
	}, meta)
	if err != nil {
		s.observer.QueryFailed(stageTransform)
		s.log.InternalError("consumption.list: post-processing failed", err, "user_id", params.UserID)
		return ListResult{}, err
	}

	s.observer.QueryCompleted(s.now().Sub(started), stats, plan.RequiresInMemorySort)
	s.log.Debug("consumption.list: ok",
		"user_id", params.UserID,
		"page", plan.Query.Page,
		"limit", plan.Query.Limit,
		"order_by", plan.Query.OrderBy,
		"sort", plan.Sort.String(),
		"fetched", stats.Fetched,
		"dropped", stats.Dropped)
	return result, nil
}

// ExportUserConsumption runs the listing pipeline as a single page holding up
// to the export limit, keeping the caller's filters and sort. The export limit
// replaces the listing page-size cap.
func (s *Service) ExportUserConsumption(ctx context.Context, params QueryParams) (ListResult, error) {
	params.Page = 1
	params.Limit = s.exportLimit
	defaults := s.defaults
	defaults.MaxLimit = s.exportLimit
	return s.list(ctx, params, defaults)
}

func (s *Service) GetConsumption(ctx context.Context, id int64) (*Consumption, error) {
	if id <= 0 {
		return nil, ErrConsumptionNotFound
	}

	row, err := s.repo.GetRow(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.project(*row)
}

// CreateConsumption stores a record whose co2_equivalent is derived from the
// activity's emission factor; a client-supplied value is ignored.
func (s *Service) CreateConsumption(ctx context.Context, input CreateInput) (*Consumption, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Date.IsZero() {
		return nil, newValidationError("date", "is required")
	}

	activity, err := s.catalog.GetActivityType(ctx, input.ActivityTypeTableID)
	if err != nil {
		return nil, err
	}

	unitID := input.UnitID
	if unitID == nil {
		unitID = activity.UnitID
	}

	record := Record{
		UserID:              input.UserID,
		Amount:              input.Amount,
		ActivityTypeTableID: activity.ID,
		UnitID:              unitID,
		CO2Equivalent:       ResolveCO2(nil, &input.Amount, &activity.EmissionFactor),
		Date:                truncateToDate(input.Date),
	}

	row, err := s.repo.InsertRow(ctx, &record)
	if err != nil {
		return nil, err
	}
	return s.project(*row)
}

// PatchConsumption applies a partial update. When the amount or the activity
// changes, the stored co2_equivalent is recomputed from the resulting pair.
func (s *Service) PatchConsumption(ctx context.Context, id int64, input PatchInput) (*Consumption, error) {
	if id <= 0 {
		return nil, ErrConsumptionNotFound
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	patch := RowPatch{
		Amount:              input.Amount,
		ActivityTypeTableID: input.ActivityTypeTableID,
		UnitID:              input.UnitID,
	}
	if input.Date != nil {
		if input.Date.IsZero() {
			return nil, newValidationError("date", "must be a valid date")
		}
		date := truncateToDate(*input.Date)
		patch.Date = &date
	}
	if patch.IsEmpty() {
		return nil, newValidationError("body", ErrEmptyPatch.Error())
	}

	if patch.Amount != nil || patch.ActivityTypeTableID != nil {
		current, err := s.repo.GetRow(ctx, id)
		if err != nil {
			return nil, err
		}

		amount := current.Amount
		if patch.Amount != nil {
			amount = patch.Amount
		}
		activityID := current.ActivityTypeTableID
		if patch.ActivityTypeTableID != nil {
			activityID = *patch.ActivityTypeTableID
		}

		activity, err := s.catalog.GetActivityType(ctx, activityID)
		if err != nil {
			return nil, err
		}
		co2 := ResolveCO2(current.CO2Equivalent, amount, &activity.EmissionFactor)
		patch.CO2Equivalent = &co2
	}

	row, err := s.repo.UpdateRow(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return s.project(*row)
}

func (s *Service) DeleteConsumption(ctx context.Context, id int64) (DeleteResult, error) {
	if id <= 0 {
		return DeleteResult{}, ErrConsumptionNotFound
	}

	result, err := s.repo.DeleteRow(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	if !result.Success {
		return DeleteResult{}, ErrConsumptionNotFound
	}
	return result, nil
}

func (s *Service) project(row Row) (*Consumption, error) {
	item, err := toConsumption(row)
	if err != nil {
		s.log.InternalError("consumption: row projection failed", err, "id", row.ID)
		return nil, err
	}
	return &item, nil
}

func validateInput(input any) error {
	errs := validation.Struct(input)
	if len(errs) == 0 {
		return nil
	}
	return newValidationError(errs[0].Field, errs[0].Message)
}

func truncateToDate(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

func describeFilters(filters Filters) map[string]any {
	described := make(map[string]any, len(filters))
	for predicate, value := range filters {
		if date, ok := value.(time.Time); ok {
			value = date.Format(time.DateOnly)
		}
		described[string(predicate)] = value
	}
	return described
}

// IsNotFound reports errors the transport layer should render as 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConsumptionNotFound) || errors.Is(err, catalogdomain.ErrActivityTypeNotFound)
}
