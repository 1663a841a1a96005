// Package csv loads planning scenarios from a directory of CSV files:
// nodes, routes, products, forecast, labor calendar, truck schedules
// and an optional inventory snapshot.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning"
)

// Scenario file names inside a scenario directory.
const (
	NodesFile     = "nodes.csv"
	RoutesFile    = "routes.csv"
	ProductsFile  = "products.csv"
	ForecastFile  = "forecast.csv"
	LaborFile     = "labor.csv"
	TrucksFile    = "trucks.csv"
	InventoryFile = "inventory.csv"
)

// Loader handles loading planning data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario loads a full scenario directory into plan inputs. The
// cost structure comes from configuration, not CSV. The inventory file
// is optional; all others are required.
func (l *Loader) LoadScenario(dir string, costs entities.CostStructure) (*planning.PlanInputs, error) {
	inputs := &planning.PlanInputs{Costs: costs}

	var g errgroup.Group
	g.Go(func() (err error) {
		inputs.Nodes, err = l.LoadNodes(filepath.Join(dir, NodesFile))
		return err
	})
	g.Go(func() (err error) {
		inputs.Routes, err = l.LoadRoutes(filepath.Join(dir, RoutesFile))
		return err
	})
	g.Go(func() (err error) {
		inputs.Products, err = l.LoadProducts(filepath.Join(dir, ProductsFile))
		return err
	})
	g.Go(func() (err error) {
		inputs.Forecast, err = l.LoadForecast(filepath.Join(dir, ForecastFile))
		return err
	})
	g.Go(func() (err error) {
		inputs.LaborCalendar, err = l.LoadLaborCalendar(filepath.Join(dir, LaborFile))
		return err
	})
	g.Go(func() (err error) {
		inputs.TruckSchedules, err = l.LoadTruckSchedules(filepath.Join(dir, TrucksFile))
		return err
	})
	g.Go(func() (err error) {
		snapPath := filepath.Join(dir, InventoryFile)
		if _, statErr := os.Stat(snapPath); os.IsNotExist(statErr) {
			return nil
		}
		inputs.InitialInventory, err = l.LoadInventory(snapPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}

// LoadNodes loads network nodes from a CSV file
func (l *Loader) LoadNodes(filename string) ([]*entities.Node, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, err
	}
	expectedHeader := []string{
		"id",
		"name",
		"can_manufacture",
		"has_demand",
		"requires_trucks",
		"storage_modes",
		"production_rate",
		"startup_hours",
		"shutdown_hours",
		"changeover_hours",
		"max_daily_capacity",
	}
	if err := checkHeader(filename, records, expectedHeader); err != nil {
		return nil, err
	}

	var nodes []*entities.Node
	for i, record := range records[1:] {
		node, err := parseNode(record)
		if err != nil {
			return nil, fmt.Errorf("nodes CSV row %d: %w", i+2, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func parseNode(record []string) (*entities.Node, error) {
	node := &entities.Node{
		ID:   entities.NodeID(strings.TrimSpace(record[0])),
		Name: strings.TrimSpace(record[1]),
	}
	var err error
	if node.CanManufacture, err = parseBool(record[2]); err != nil {
		return nil, fmt.Errorf("can_manufacture: %w", err)
	}
	if node.HasDemand, err = parseBool(record[3]); err != nil {
		return nil, fmt.Errorf("has_demand: %w", err)
	}
	if node.RequiresTrucks, err = parseBool(record[4]); err != nil {
		return nil, fmt.Errorf("requires_trucks: %w", err)
	}
	for _, m := range splitList(record[5]) {
		mode, ok := entities.ParseStorageMode(m)
		if !ok {
			return nil, fmt.Errorf("unknown storage mode %q", m)
		}
		node.StorageModes = append(node.StorageModes, mode)
	}
	if node.CanManufacture {
		rate, err := parseFloat(record[6])
		if err != nil {
			return nil, fmt.Errorf("production_rate: %w", err)
		}
		startup, err := parseFloat(record[7])
		if err != nil {
			return nil, fmt.Errorf("startup_hours: %w", err)
		}
		shutdown, err := parseFloat(record[8])
		if err != nil {
			return nil, fmt.Errorf("shutdown_hours: %w", err)
		}
		changeover, err := parseFloat(record[9])
		if err != nil {
			return nil, fmt.Errorf("changeover_hours: %w", err)
		}
		maxDaily, err := parseFloat(record[10])
		if err != nil {
			return nil, fmt.Errorf("max_daily_capacity: %w", err)
		}
		node.Manufacturing = &entities.ManufacturingCapability{
			ProductionRatePerHour: rate,
			StartupHours:          startup,
			ShutdownHours:         shutdown,
			ChangeoverHours:       changeover,
			MaxDailyCapacityUnits: maxDaily,
		}
	}
	return node, nil
}

// LoadRoutes loads transport routes from a CSV file
func (l *Loader) LoadRoutes(filename string) ([]entities.Route, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, err
	}
	expectedHeader := []string{"origin", "destination", "mode", "transit_days", "cost_per_unit"}
	if err := checkHeader(filename, records, expectedHeader); err != nil {
		return nil, err
	}

	var routes []entities.Route
	for i, record := range records[1:] {
		mode, ok := entities.ParseStorageMode(strings.TrimSpace(record[2]))
		if !ok {
			return nil, fmt.Errorf("routes CSV row %d: unknown mode %q", i+2, record[2])
		}
		transit, err := parseInt(record[3])
		if err != nil {
			return nil, fmt.Errorf("routes CSV row %d: transit_days: %w", i+2, err)
		}
		cost, err := parseFloat(record[4])
		if err != nil {
			return nil, fmt.Errorf("routes CSV row %d: cost_per_unit: %w", i+2, err)
		}
		routes = append(routes, entities.Route{
			Origin:      entities.NodeID(strings.TrimSpace(record[0])),
			Destination: entities.NodeID(strings.TrimSpace(record[1])),
			Mode:        mode,
			TransitDays: transit,
			CostPerUnit: cost,
		})
	}
	return routes, nil
}

// LoadProducts loads products from a CSV file
func (l *Loader) LoadProducts(filename string) ([]*entities.Product, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, err
	}
	expectedHeader := []string{
		"id",
		"name",
		"units_per_pallet",
		"ambient_shelf_life_days",
		"frozen_shelf_life_days",
		"thawed_shelf_life_days",
	}
	if err := checkHeader(filename, records, expectedHeader); err != nil {
		return nil, err
	}

	var products []*entities.Product
	for i, record := range records[1:] {
		upp, err := parseInt(record[2])
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: units_per_pallet: %w", i+2, err)
		}
		ambient, err := parseInt(record[3])
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: ambient_shelf_life_days: %w", i+2, err)
		}
		frozen, err := parseInt(record[4])
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: frozen_shelf_life_days: %w", i+2, err)
		}
		thawed, err := parseInt(record[5])
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: thawed_shelf_life_days: %w", i+2, err)
		}
		products = append(products, &entities.Product{
			ID:                   entities.ProductID(strings.TrimSpace(record[0])),
			Name:                 strings.TrimSpace(record[1]),
			UnitsPerPallet:       upp,
			AmbientShelfLifeDays: ambient,
			FrozenShelfLifeDays:  frozen,
			ThawedShelfLifeDays:  thawed,
		})
	}
	return products, nil
}

// LoadForecast loads demand forecast entries from a CSV file
func (l *Loader) LoadForecast(filename string) (*entities.Forecast, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, err
	}
	expectedHeader := []string{"location", "product", "date", "quantity"}
	if err := checkHeader(filename, records, expectedHeader); err != nil {
		return nil, err
	}

	forecast := &entities.Forecast{Name: filepath.Base(filename)}
	for i, record := range records[1:] {
		date, err := parseDate(record[2])
		if err != nil {
			return nil, fmt.Errorf("forecast CSV row %d: date: %w", i+2, err)
		}
		qty, err := parseFloat(record[3])
		if err != nil {
			return nil, fmt.Errorf("forecast CSV row %d: quantity: %w", i+2, err)
		}
		forecast.Entries = append(forecast.Entries, entities.ForecastEntry{
			Location: entities.NodeID(strings.TrimSpace(record[0])),
			Product:  entities.ProductID(strings.TrimSpace(record[1])),
			Date:     date,
			Quantity: qty,
		})
	}
	return forecast, nil
}

// LoadLaborCalendar loads the labor calendar from a CSV file
func (l *Loader) LoadLaborCalendar(filename string) (*entities.LaborCalendar, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, err
	}
	expectedHeader := []string{
		"date",
		"is_fixed_day",
		"fixed_hours",
		"max_hours",
		"regular_rate",
		"overtime_rate",
		"non_fixed_rate",
		"minimum_hours",
	}
	if err := checkHeader(filename, records, expectedHeader); err != nil {
		return nil, err
	}

	var days []entities.LaborDay
	for i, record := range records[1:] {
		day, err := parseLaborDay(record)
		if err != nil {
			return nil, fmt.Errorf("labor CSV row %d: %w", i+2, err)
		}
		days = append(days, day)
	}
	return entities.NewLaborCalendar(filepath.Base(filename), days), nil
}

func parseLaborDay(record []string) (entities.LaborDay, error) {
	var day entities.LaborDay
	var err error
	if day.Date, err = parseDate(record[0]); err != nil {
		return day, fmt.Errorf("date: %w", err)
	}
	if day.IsFixedDay, err = parseBool(record[1]); err != nil {
		return day, fmt.Errorf("is_fixed_day: %w", err)
	}
	if day.FixedHours, err = parseFloat(record[2]); err != nil {
		return day, fmt.Errorf("fixed_hours: %w", err)
	}
	if day.MaxHours, err = parseFloat(record[3]); err != nil {
		return day, fmt.Errorf("max_hours: %w", err)
	}
	if day.RegularRate, err = parseFloat(record[4]); err != nil {
		return day, fmt.Errorf("regular_rate: %w", err)
	}
	if day.OvertimeRate, err = parseFloat(record[5]); err != nil {
		return day, fmt.Errorf("overtime_rate: %w", err)
	}
	if day.NonFixedRate, err = parseFloat(record[6]); err != nil {
		return day, fmt.Errorf("non_fixed_rate: %w", err)
	}
	if day.MinimumHours, err = parseFloat(record[7]); err != nil {
		return day, fmt.Errorf("minimum_hours: %w", err)
	}
	return day, nil
}

// LoadTruckSchedules loads truck timetable entries from a CSV file
func (l *Loader) LoadTruckSchedules(filename string) ([]*entities.TruckSchedule, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, err
	}
	expectedHeader := []string{
		"id",
		"origin",
		"destination",
		"intermediate_stops",
		"mode",
		"days_of_week",
		"capacity_units",
		"pallet_capacity",
		"fixed_cost",
	}
	if err := checkHeader(filename, records, expectedHeader); err != nil {
		return nil, err
	}

	var schedules []*entities.TruckSchedule
	for i, record := range records[1:] {
		sched, err := parseTruckSchedule(record)
		if err != nil {
			return nil, fmt.Errorf("trucks CSV row %d: %w", i+2, err)
		}
		schedules = append(schedules, sched)
	}
	return schedules, nil
}

func parseTruckSchedule(record []string) (*entities.TruckSchedule, error) {
	mode, ok := entities.ParseStorageMode(strings.TrimSpace(record[4]))
	if !ok {
		return nil, fmt.Errorf("unknown mode %q", record[4])
	}
	capUnits, err := parseFloat(record[6])
	if err != nil {
		return nil, fmt.Errorf("capacity_units: %w", err)
	}
	palletCap, err := parseInt(record[7])
	if err != nil {
		return nil, fmt.Errorf("pallet_capacity: %w", err)
	}
	fixedCost, err := parseFloat(record[8])
	if err != nil {
		return nil, fmt.Errorf("fixed_cost: %w", err)
	}
	sched := &entities.TruckSchedule{
		ID:             strings.TrimSpace(record[0]),
		Origin:         entities.NodeID(strings.TrimSpace(record[1])),
		Destination:    entities.NodeID(strings.TrimSpace(record[2])),
		Mode:           mode,
		CapacityUnits:  capUnits,
		PalletCapacity: palletCap,
		FixedCost:      fixedCost,
	}
	for _, stop := range splitList(record[3]) {
		sched.IntermediateStops = append(sched.IntermediateStops, entities.NodeID(stop))
	}
	for _, wd := range splitList(record[5]) {
		weekday, err := parseWeekday(wd)
		if err != nil {
			return nil, err
		}
		sched.DaysOfWeek = append(sched.DaysOfWeek, weekday)
	}
	return sched, nil
}

// LoadInventory loads the initial inventory snapshot from a CSV file.
// The snapshot date comes from a snapshot_date column repeated per row.
func (l *Loader) LoadInventory(filename string) (*entities.InventorySnapshot, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, err
	}
	expectedHeader := []string{"snapshot_date", "node", "product", "age_days", "state", "quantity"}
	if err := checkHeader(filename, records, expectedHeader); err != nil {
		return nil, err
	}

	snap := &entities.InventorySnapshot{}
	for i, record := range records[1:] {
		date, err := parseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: snapshot_date: %w", i+2, err)
		}
		if snap.SnapshotDate.IsZero() {
			snap.SnapshotDate = date
		} else if !snap.SnapshotDate.Equal(date) {
			return nil, fmt.Errorf("inventory CSV row %d: snapshot_date %s differs from %s",
				i+2, record[0], snap.SnapshotDate.Format("2006-01-02"))
		}
		age, err := parseInt(record[3])
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: age_days: %w", i+2, err)
		}
		state, ok := entities.ParseStorageMode(strings.TrimSpace(record[4]))
		if !ok {
			return nil, fmt.Errorf("inventory CSV row %d: unknown state %q", i+2, record[4])
		}
		qty, err := parseFloat(record[5])
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: quantity: %w", i+2, err)
		}
		snap.Entries = append(snap.Entries, entities.InventoryEntry{
			Node:     entities.NodeID(strings.TrimSpace(record[1])),
			Product:  entities.ProductID(strings.TrimSpace(record[2])),
			AgeDays:  age,
			State:    state,
			Quantity: qty,
		})
	}
	return snap, nil
}

func readAll(filename string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s is empty", filename)
	}
	return records, nil
}

func checkHeader(filename string, records [][]string, expected []string) error {
	if !validateHeader(records[0], expected) {
		return fmt.Errorf("%s header mismatch. Expected: %v, Got: %v", filepath.Base(filename), expected, records[0])
	}
	for i, record := range records[1:] {
		if len(record) != len(expected) {
			return fmt.Errorf("%s row %d: expected %d columns, got %d",
				filepath.Base(filename), i+2, len(expected), len(record))
		}
	}
	return nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}
	return true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseBool(s string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(s))
}

func parseFloat(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, nil
	}
	return strconv.ParseFloat(trimmed, 64)
}

func parseInt(s string) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, nil
	}
	return strconv.Atoi(trimmed)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return entities.Midnight(t), nil
}

func parseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(s) {
	case "mon", "monday":
		return time.Monday, nil
	case "tue", "tuesday":
		return time.Tuesday, nil
	case "wed", "wednesday":
		return time.Wednesday, nil
	case "thu", "thursday":
		return time.Thursday, nil
	case "fri", "friday":
		return time.Friday, nil
	case "sat", "saturday":
		return time.Saturday, nil
	case "sun", "sunday":
		return time.Sunday, nil
	default:
		return time.Sunday, fmt.Errorf("unknown weekday %q", s)
	}
}
