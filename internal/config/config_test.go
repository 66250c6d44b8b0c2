package config

import "testing"

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("RAG_CANDIDATE_MULTIPLIER", "")
	t.Setenv("RAG_FUSION_RRF_K", "")
	t.Setenv("RAG_EMERGENCY_BOOST", "")
	t.Setenv("ONTOLOGY_MAX_EXPANSIONS", "")

	cfg := Load()
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.RAGTopK)
	}
	if cfg.RAGCandidateMultiplier != 4 {
		t.Fatalf("expected default candidate multiplier 4, got %d", cfg.RAGCandidateMultiplier)
	}
	if cfg.RAGFusionRRFK != 60 {
		t.Fatalf("expected default fusion rrf k 60, got %d", cfg.RAGFusionRRFK)
	}
	if cfg.RAGEmergencyBoost != 1.5 {
		t.Fatalf("expected default emergency boost 1.5, got %v", cfg.RAGEmergencyBoost)
	}
	if cfg.OntologyMaxExpansions != 3 {
		t.Fatalf("expected default max expansions 3, got %d", cfg.OntologyMaxExpansions)
	}
}

func TestLoadParsesRetrievalOverrides(t *testing.T) {
	t.Setenv("RAG_TOP_K", "8")
	t.Setenv("RAG_CANDIDATE_MULTIPLIER", "6")
	t.Setenv("RAG_FUSION_RRF_K", "75")
	t.Setenv("RAG_EMERGENCY_BOOST", "2.0")
	t.Setenv("ONTOLOGY_MAX_EXPANSIONS", "5")

	cfg := Load()
	if cfg.RAGTopK != 8 {
		t.Fatalf("expected top k 8, got %d", cfg.RAGTopK)
	}
	if cfg.RAGCandidateMultiplier != 6 {
		t.Fatalf("expected candidate multiplier 6, got %d", cfg.RAGCandidateMultiplier)
	}
	if cfg.RAGFusionRRFK != 75 {
		t.Fatalf("expected fusion rrf k 75, got %d", cfg.RAGFusionRRFK)
	}
	if cfg.RAGEmergencyBoost != 2.0 {
		t.Fatalf("expected emergency boost 2.0, got %v", cfg.RAGEmergencyBoost)
	}
	if cfg.OntologyMaxExpansions != 5 {
		t.Fatalf("expected max expansions 5, got %d", cfg.OntologyMaxExpansions)
	}
}

func TestLoadFallsBackOnMalformedNumbers(t *testing.T) {
	t.Setenv("RAG_TOP_K", "not-a-number")
	t.Setenv("RAG_EMERGENCY_BOOST", "mucho")

	cfg := Load()
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected fallback top k 5, got %d", cfg.RAGTopK)
	}
	if cfg.RAGEmergencyBoost != 1.5 {
		t.Fatalf("expected fallback boost 1.5, got %v", cfg.RAGEmergencyBoost)
	}
}
