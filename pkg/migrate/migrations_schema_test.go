package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, driver, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", driver, "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration found for %s", suffix, driver)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestProjectsMigrationContainsConstraints(t *testing.T) {
	for _, driver := range []string{"postgres", "sqlite"} {
		content := readMigration(t, driver, "create_projects")
		checks := []string{
			"CREATE TABLE IF NOT EXISTS projects",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_name ON projects (name)",
			"DROP TABLE IF EXISTS projects",
		}
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", driver, sub)
			}
		}
	}
}

func TestMaterialsMigrationContainsConstraints(t *testing.T) {
	for _, driver := range []string{"postgres", "sqlite"} {
		content := readMigration(t, driver, "create_materials")
		checks := []string{
			"CREATE TABLE IF NOT EXISTS materials",
			"REFERENCES projects(id) ON DELETE CASCADE",
			"planned_qty >= 0",
			"CREATE INDEX IF NOT EXISTS idx_materials_project_id",
			"DROP TABLE IF EXISTS materials",
		}
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", driver, sub)
			}
		}
	}
}

func TestShipmentEventsMigrationKeepsMaterialUnbound(t *testing.T) {
	for _, driver := range []string{"postgres", "sqlite"} {
		content := readMigration(t, driver, "create_shipment_events")
		checks := []string{
			"CREATE TABLE IF NOT EXISTS shipment_events",
			"cancels_event_id",
			"CREATE INDEX IF NOT EXISTS idx_shipment_events_project_occurred",
			"DROP TABLE IF EXISTS shipment_events",
		}
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", driver, sub)
			}
		}
		if strings.Contains(content, "REFERENCES materials") {
			t.Errorf("%s: shipment_events must not reference materials", driver)
		}
	}
}
