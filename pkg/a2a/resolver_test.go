package a2a

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_PublicCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, AgentCardPath, r.URL.Path)
		respondJSON(w, http.StatusOK, AgentCard{
			Name: "validator",
			URL:  "http://localhost:9999",
		})
	}))
	defer srv.Close()

	card, err := NewCardResolver().Resolve(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "validator", card.Name)
	// The advertised URL is stale; the caller's address wins.
	assert.Equal(t, srv.URL, card.URL)
}

func TestResolve_ExtendedCard(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AgentCardPath:
			respondJSON(w, http.StatusOK, AgentCard{
				Name:                              "validator",
				SupportsAuthenticatedExtendedCard: true,
			})
		case ExtendedCardPath:
			gotAuth = r.Header.Get("Authorization")
			respondJSON(w, http.StatusOK, AgentCard{
				Name:   "validator",
				Skills: []AgentSkill{{ID: "validate_haiku", Name: "Validate Haiku"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	card, err := NewCardResolver().Resolve(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Bearer "+DefaultExtendedCardToken, gotAuth)
	require.Len(t, card.Skills, 1)
	assert.Equal(t, srv.URL, card.URL)
}

func TestResolve_ExtendedCardFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AgentCardPath:
			respondJSON(w, http.StatusOK, AgentCard{
				Name:                              "validator",
				Description:                       "public view",
				SupportsAuthenticatedExtendedCard: true,
			})
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	card, err := NewCardResolver().Resolve(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "public view", card.Description)
}

func TestResolve_PublicCardFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewCardResolver().Resolve(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, ErrorKindDiscovery, KindOf(err))
}

func TestResolve_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewCardResolver().Resolve(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, ErrorKindDiscovery, KindOf(err))
}

func TestResolve_EmptyURL(t *testing.T) {
	_, err := NewCardResolver().Resolve(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, ErrorKindConfig, KindOf(err))
}

func TestResolve_CustomToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AgentCardPath:
			respondJSON(w, http.StatusOK, AgentCard{SupportsAuthenticatedExtendedCard: true})
		case ExtendedCardPath:
			gotAuth = r.Header.Get("Authorization")
			respondJSON(w, http.StatusOK, AgentCard{})
		}
	}))
	defer srv.Close()

	resolver := NewCardResolver(WithExtendedCardToken("secret"))
	_, err := resolver.Resolve(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
}
