// =============================================================================
// Position Grouper - Catalog Module
// =============================================================================
//
// This module keeps the two reference catalogs used to add new line-items to
// a position:
//
//   - employees: name and hourly rate (labour, billed in hours)
//   - wires:     brand, cross-section and price per meter (material)
//
// Catalogs live in a SQLite database whose schema is created by embedded
// migrations. Listings and lookups are cached; every write flushes the cache.
//
// =============================================================================

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/position-grouper/internal/positions"
	"github.com/ginjaninja78/position-grouper/internal/types"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a catalog entry does not exist.
var ErrNotFound = errors.New("catalog entry not found")

const (
	employeesKey = "employees"
	wiresKey     = "wires"
)

// =============================================================================
// CATALOG ENTRIES
// =============================================================================

// Employee is a labour rate entry.
type Employee struct {
	ID          int64
	Name        string
	HourlyRate  float64
	Description string
	IsActive    bool
}

// Source returns the employee as a line-item template source.
func (e Employee) Source() positions.TemplateSource {
	return positions.TemplateSource{
		Kind:      types.SourceEmployee,
		CatalogID: e.ID,
		Name:      e.Name,
		Rate:      e.HourlyRate,
	}
}

// Wire is a material price entry.
type Wire struct {
	ID             int64
	Brand          string
	CrossSection   float64
	InsulationType string
	PricePerMeter  float64
	Description    string
	IsActive       bool
}

// DisplayName renders the wire as "brand <cross-section>мм² <insulation>".
func (w Wire) DisplayName() string {
	name := w.Brand + " " + strconv.FormatFloat(w.CrossSection, 'f', -1, 64) + "мм²"
	if w.InsulationType != "" {
		name += " " + w.InsulationType
	}
	return name
}

// Source returns the wire as a line-item template source.
func (w Wire) Source() positions.TemplateSource {
	return positions.TemplateSource{
		Kind:      types.SourceWire,
		CatalogID: w.ID,
		Name:      w.DisplayName(),
		Rate:      w.PricePerMeter,
	}
}

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite-backed catalog.
type Store struct {
	db    *sql.DB
	cache *cache.Cache
	log   zerolog.Logger
}

// Open opens (creating if needed) the catalog at dbPath and migrates it.
//
// PARAMETERS:
//   - dbPath: The SQLite database file.
//   - ttl: How long reads are cached.
//   - log: Logger for write operations.
//
// RETURNS:
//   - The store. Call Close when done.
//   - An error if the database cannot be opened or migrated.
func Open(dbPath string, ttl time.Duration, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping catalog database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &Store{
		db:    db,
		cache: cache.New(ttl, 2*ttl),
		log:   log.With().Str("component", "catalog").Logger(),
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// invalidate drops every cached read.
func (s *Store) invalidate() {
	s.cache.Flush()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, name, hourly_rate, description, is_active`

// ListEmployees returns active employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	if cached, ok := s.cache.Get(employeesKey); ok {
		return append([]Employee(nil), cached.([]Employee)...), nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE is_active = 1 ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	s.cache.Set(employeesKey, append([]Employee(nil), employees...), cache.DefaultExpiration)
	return employees, nil
}

// GetEmployee returns one employee, active or not.
func (s *Store) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	key := fmt.Sprintf("employee:%d", id)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(Employee), nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Employee{}, fmt.Errorf("%w: employee %d", ErrNotFound, id)
	}
	if err != nil {
		return Employee{}, fmt.Errorf("failed to get employee %d: %w", id, err)
	}

	s.cache.Set(key, e, cache.DefaultExpiration)
	return e, nil
}

// FindEmployee returns the active employee with the given name
// (case-insensitive).
func (s *Store) FindEmployee(ctx context.Context, name string) (Employee, error) {
	employees, err := s.ListEmployees(ctx)
	if err != nil {
		return Employee{}, err
	}
	for _, e := range employees {
		if strings.EqualFold(e.Name, strings.TrimSpace(name)) {
			return e, nil
		}
	}
	return Employee{}, fmt.Errorf("%w: employee %q", ErrNotFound, name)
}

// AddEmployee inserts a new active employee.
func (s *Store) AddEmployee(ctx context.Context, name string, hourlyRate float64, description string) (Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Employee{}, fmt.Errorf("employee name is required")
	}
	if err := checkRate(hourlyRate); err != nil {
		return Employee{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (name, hourly_rate, description) VALUES (?, ?, ?)`,
		name, hourlyRate, description)
	if err != nil {
		return Employee{}, fmt.Errorf("failed to add employee: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Employee{}, fmt.Errorf("failed to add employee: %w", err)
	}
	s.invalidate()

	s.log.Info().Int64("id", id).Str("name", name).Float64("hourly_rate", hourlyRate).Msg("employee added")

	return Employee{ID: id, Name: name, HourlyRate: hourlyRate, Description: description, IsActive: true}, nil
}

// UpdateEmployeeRate changes an employee's hourly rate.
func (s *Store) UpdateEmployeeRate(ctx context.Context, id int64, hourlyRate float64) error {
	if err := checkRate(hourlyRate); err != nil {
		return err
	}
	return s.update(ctx, "employee", id,
		`UPDATE employees SET hourly_rate = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		hourlyRate, id)
}

// SetEmployeeActive shows or hides an employee in listings.
func (s *Store) SetEmployeeActive(ctx context.Context, id int64, active bool) error {
	return s.update(ctx, "employee", id,
		`UPDATE employees SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, id)
}

// =============================================================================
// WIRES
// =============================================================================

const wireColumns = `id, brand, cross_section, insulation_type, price_per_meter, description, is_active`

// ListWires returns active wires ordered by brand, then cross-section.
func (s *Store) ListWires(ctx context.Context) ([]Wire, error) {
	if cached, ok := s.cache.Get(wiresKey); ok {
		return append([]Wire(nil), cached.([]Wire)...), nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+wireColumns+` FROM wires WHERE is_active = 1 ORDER BY brand, cross_section, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list wires: %w", err)
	}
	defer rows.Close()

	var wires []Wire
	for rows.Next() {
		w, err := scanWire(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wire: %w", err)
		}
		wires = append(wires, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list wires: %w", err)
	}

	s.cache.Set(wiresKey, append([]Wire(nil), wires...), cache.DefaultExpiration)
	return wires, nil
}

// GetWire returns one wire, active or not.
func (s *Store) GetWire(ctx context.Context, id int64) (Wire, error) {
	key := fmt.Sprintf("wire:%d", id)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(Wire), nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+wireColumns+` FROM wires WHERE id = ?`, id)
	w, err := scanWire(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Wire{}, fmt.Errorf("%w: wire %d", ErrNotFound, id)
	}
	if err != nil {
		return Wire{}, fmt.Errorf("failed to get wire %d: %w", id, err)
	}

	s.cache.Set(key, w, cache.DefaultExpiration)
	return w, nil
}

// AddWire inserts a new active wire.
func (s *Store) AddWire(ctx context.Context, w Wire) (Wire, error) {
	w.Brand = strings.TrimSpace(w.Brand)
	if w.Brand == "" {
		return Wire{}, fmt.Errorf("wire brand is required")
	}
	if math.IsNaN(w.CrossSection) || math.IsInf(w.CrossSection, 0) || w.CrossSection <= 0 {
		return Wire{}, fmt.Errorf("%w: cross-section %v", positions.ErrInvalidNumericInput, w.CrossSection)
	}
	if err := checkRate(w.PricePerMeter); err != nil {
		return Wire{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO wires (brand, cross_section, insulation_type, price_per_meter, description)
		 VALUES (?, ?, ?, ?, ?)`,
		w.Brand, w.CrossSection, w.InsulationType, w.PricePerMeter, w.Description)
	if err != nil {
		return Wire{}, fmt.Errorf("failed to add wire: %w", err)
	}
	w.ID, err = res.LastInsertId()
	if err != nil {
		return Wire{}, fmt.Errorf("failed to add wire: %w", err)
	}
	w.IsActive = true
	s.invalidate()

	s.log.Info().Int64("id", w.ID).Str("wire", w.DisplayName()).Float64("price_per_meter", w.PricePerMeter).Msg("wire added")

	return w, nil
}

// UpdateWirePrice changes a wire's price per meter.
func (s *Store) UpdateWirePrice(ctx context.Context, id int64, pricePerMeter float64) error {
	if err := checkRate(pricePerMeter); err != nil {
		return err
	}
	return s.update(ctx, "wire", id,
		`UPDATE wires SET price_per_meter = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		pricePerMeter, id)
}

// SetWireActive shows or hides a wire in listings.
func (s *Store) SetWireActive(ctx context.Context, id int64, active bool) error {
	return s.update(ctx, "wire", id,
		`UPDATE wires SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, id)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(r scanner) (Employee, error) {
	var e Employee
	err := r.Scan(&e.ID, &e.Name, &e.HourlyRate, &e.Description, &e.IsActive)
	return e, err
}

func scanWire(r scanner) (Wire, error) {
	var w Wire
	err := r.Scan(&w.ID, &w.Brand, &w.CrossSection, &w.InsulationType, &w.PricePerMeter, &w.Description, &w.IsActive)
	return w, err
}

// update runs a single-row update and flushes the cache.
func (s *Store) update(ctx context.Context, entity string, id int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", entity, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", entity, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", ErrNotFound, entity, id)
	}
	s.invalidate()

	s.log.Info().Str("entity", entity).Int64("id", id).Msg("catalog entry updated")
	return nil
}

// checkRate validates a rate or price.
func checkRate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: rate %v", positions.ErrInvalidNumericInput, v)
	}
	return positions.CheckAmount(v)
}
