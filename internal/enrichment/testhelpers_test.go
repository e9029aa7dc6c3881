package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

// newOracleTestServer creates an httptest server that responds with the given handler.
func newOracleTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func sampleItems() []Item {
	return []Item{
		{Key: "assis::dom casmurro", Record: &domain.Record{
			Title:   "Dom Casmurro",
			Authors: []domain.Author{{Surname: "Assis", GivenName: "Machado de"}},
			Kind:    domain.KindBook,
		}},
	}
}

// stubOracle returns a fixed answer and counts calls.
type stubOracle struct {
	answer map[string]Fields
	err    error
	calls  atomic.Int32
}

func (s *stubOracle) Name() string { return "stub" }

func (s *stubOracle) EnrichBatch(_ context.Context, _ string, _ []Item) (map[string]Fields, error) {
	s.calls.Add(1)
	return s.answer, s.err
}
