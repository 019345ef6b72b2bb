package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emlakhub/emlakhub-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestListingsMigrationEnforcesAdminHide(t *testing.T) {
	content := readMigration(t, "create_listings")

	checks := []string{
		"CREATE TYPE listing_status AS ENUM ('available', 'pending', 'hidden', 'sold', 'rented')",
		"CONSTRAINT listings_admin_hide_status_chk CHECK (NOT hidden_by_admin OR status IN ('pending', 'hidden'))",
		"WHERE status = 'available' AND NOT hidden_by_admin",
		"IF OLD.hidden_by_admin AND NEW.status IS DISTINCT FROM OLD.status THEN",
		"RAISE EXCEPTION 'listing is locked by an administrator' USING ERRCODE = '42501'",
		"current_setting('app.user_role', true)",
		"BEFORE INSERT OR UPDATE OR DELETE ON listings",
		"DROP TABLE IF EXISTS listings",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestListingsTriggerLeavesContentEditsOpenWhileHidden(t *testing.T) {
	content := readMigration(t, "create_listings")

	if strings.Contains(content, "IF OLD.hidden_by_admin THEN") {
		t.Errorf("admin lock must only guard status changes, not every owner update")
	}
	lock := strings.Index(content, "IF OLD.hidden_by_admin AND NEW.status IS DISTINCT FROM OLD.status THEN")
	owner := strings.Index(content, "RAISE EXCEPTION 'only the owner may change this listing'")
	if lock < 0 || owner < 0 || lock > owner {
		t.Errorf("admin lock check must precede the ownership check")
	}
}

func TestEngagementMigrationKeepsActivityLogWithoutListingFK(t *testing.T) {
	content := readMigration(t, "create_engagement_tables")

	start := strings.Index(content, "CREATE TABLE IF NOT EXISTS activity_logs")
	end := strings.Index(content[start:], ");")
	if start < 0 || end < 0 {
		t.Fatalf("activity_logs table not found")
	}
	if strings.Contains(content[start:start+end], "REFERENCES") {
		t.Errorf("activity_logs must not reference other tables")
	}
	for _, sub := range []string{
		"reports_open_per_reporter_uq ON reports (listing_id, reporter_id) WHERE status = 'open'",
		"listing_id uuid NOT NULL REFERENCES listings(id) ON DELETE CASCADE",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
