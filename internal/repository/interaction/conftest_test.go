package interaction

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/promptdex/internal/db/postgres"
	domprompt "github.com/kailas-cloud/promptdex/internal/domain/prompt"
	promptrepo "github.com/kailas-cloud/promptdex/internal/repository/prompt"
)

// openTestStore connects to PROMPTDEX_TEST_DSN (a disposable database) or skips.
func openTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("PROMPTDEX_TEST_DSN")
	if dsn == "" {
		t.Skip("PROMPTDEX_TEST_DSN not set")
	}
	ctx := context.Background()
	s, err := postgres.NewStore(ctx, postgres.Config{DSN: dsn, Dimensions: 3, Migrate: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s.DB(ctx).Exec("TRUNCATE interactions, prompts CASCADE")
	t.Cleanup(func() {
		s.DB(ctx).Exec("TRUNCATE interactions, prompts CASCADE")
		_ = s.Close()
	})
	return s
}

func seedPrompt(t *testing.T, s *postgres.Store, public bool, emb []float32) domprompt.Prompt {
	t.Helper()
	ctx := context.Background()
	p, err := domprompt.New(uuid.NewString(), "owner", "Title", "Body", nil, public, time.Now().UTC())
	if err != nil {
		t.Fatalf("new prompt: %v", err)
	}
	repo := promptrepo.New(s)
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("create prompt: %v", err)
	}
	if emb != nil {
		if err := repo.SetEmbedding(ctx, p.ID(), emb, "m", time.Now()); err != nil {
			t.Fatalf("set embedding: %v", err)
		}
	}
	return p
}
