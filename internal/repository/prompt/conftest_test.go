package prompt

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/promptdex/internal/db/postgres"
	domprompt "github.com/kailas-cloud/promptdex/internal/domain/prompt"
)

// testDims is the embedding column size of the disposable test database.
const testDims = 3

// openTestStore connects to PROMPTDEX_TEST_DSN (a disposable database) or skips.
func openTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("PROMPTDEX_TEST_DSN")
	if dsn == "" {
		t.Skip("PROMPTDEX_TEST_DSN not set")
	}
	ctx := context.Background()
	s, err := postgres.NewStore(ctx, postgres.Config{DSN: dsn, Dimensions: testDims, Migrate: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		s.DB(ctx).Exec("TRUNCATE interactions, prompts CASCADE")
		_ = s.Close()
	})
	s.DB(ctx).Exec("TRUNCATE interactions, prompts CASCADE")
	return s
}

func mustPrompt(t *testing.T, owner, title, content string, tags []string, public bool, at time.Time) domprompt.Prompt {
	t.Helper()
	p, err := domprompt.New(uuid.NewString(), owner, title, content, tags, public, at)
	if err != nil {
		t.Fatalf("new prompt: %v", err)
	}
	return p
}
