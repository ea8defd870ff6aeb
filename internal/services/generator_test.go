package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"petidocs/internal/gdocs"
	"petidocs/internal/logger"
)

func newGenerator(provider gdocs.Provider, rootFolderID string) *GeneratorService {
	return NewGeneratorService(provider, rootFolderID, logger.NewNop())
}

func TestResolveUniqueNameNoCollision(t *testing.T) {
	provider := newFakeProvider()
	gen := newGenerator(provider, "root")

	name, err := gen.ResolveUniqueName(context.Background(), "Recurso - João", "folder1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Recurso - João" {
		t.Fatalf("got %q, want base name unchanged", name)
	}
}

func TestResolveUniqueNameCollision(t *testing.T) {
	provider := newFakeProvider()
	provider.children["folder1"] = []gdocs.FileRef{{ID: "x", Name: "Recurso - João"}}
	gen := newGenerator(provider, "root")

	name, err := gen.ResolveUniqueName(context.Background(), "Recurso - João", "folder1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := fmt.Sprintf("%s - Recurso - João", time.Now().Format("2006-01-02"))
	if name != want {
		t.Fatalf("got %q, want %q", name, want)
	}
}

func TestResolveUniqueNameDatePrefixedVariantCollides(t *testing.T) {
	// An older dated copy of the same base name also forces the prefix.
	provider := newFakeProvider()
	provider.children["folder1"] = []gdocs.FileRef{{ID: "x", Name: "2024-03-10 - Recurso"}}
	gen := newGenerator(provider, "root")

	name, err := gen.ResolveUniqueName(context.Background(), "Recurso", "folder1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(name, " - Recurso") || name == "Recurso" {
		t.Fatalf("expected date-prefixed name, got %q", name)
	}
}

func TestDuplicateAndFill(t *testing.T) {
	provider := newFakeProvider()
	gen := newGenerator(provider, "root")

	substitutions := map[string]string{
		"nome":  "Maria Silva",
		"cpf":   "52998224725",
		"vazio": "",
	}
	docID, link, err := gen.DuplicateAndFill(context.Background(), "tpl-1", "Recurso - Maria", "folder1", substitutions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docID == "" || !strings.Contains(link, docID) {
		t.Fatalf("bad result: id=%q link=%q", docID, link)
	}

	if len(provider.copied) != 1 || provider.copied[0].folderID != "folder1" {
		t.Fatalf("copy calls = %+v", provider.copied)
	}

	replacements := provider.replacements[docID]
	// Two pairs per non-empty key: triple-brace first, then double-brace.
	if len(replacements) != 4 {
		t.Fatalf("got %d replacements, want 4: %+v", len(replacements), replacements)
	}
	var sawEmpty bool
	for _, r := range replacements {
		if strings.Contains(r.Find, "vazio") {
			sawEmpty = true
		}
	}
	if sawEmpty {
		t.Fatalf("empty values must keep their placeholder untouched")
	}
}

func TestDuplicateAndFillTripleBraceBeforeDouble(t *testing.T) {
	provider := newFakeProvider()
	gen := newGenerator(provider, "root")

	docID, _, err := gen.DuplicateAndFill(context.Background(), "tpl-1", "Doc", "folder1",
		map[string]string{"nome": "Maria"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	replacements := provider.replacements[docID]
	if len(replacements) != 2 {
		t.Fatalf("got %d replacements, want 2", len(replacements))
	}
	if replacements[0].Find != "{{{nome}}}" || replacements[1].Find != "{{nome}}" {
		t.Fatalf("wrong order: %+v", replacements)
	}
}

func TestDuplicateAndFillDateValueKeepsFormat(t *testing.T) {
	provider := newFakeProvider()
	gen := newGenerator(provider, "root")

	docID, _, err := gen.DuplicateAndFill(context.Background(), "tpl-1", "Doc", "folder1",
		map[string]string{"data_infracao": "15/03/2024"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range provider.replacements[docID] {
		if !strings.HasSuffix(r.Replace, "15/03/2024") || r.Replace == "15/03/2024" {
			t.Fatalf("date value %q must carry the formatting guard prefix", r.Replace)
		}
	}
}

func TestDuplicateAndFillCopyFailure(t *testing.T) {
	provider := newFakeProvider()
	provider.copyErr = fmt.Errorf("copy exploded")
	gen := newGenerator(provider, "root")

	if _, _, err := gen.DuplicateAndFill(context.Background(), "tpl-1", "Doc", "folder1", nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFindOrCreateClientFolderExactMatch(t *testing.T) {
	provider := newFakeProvider()
	conventional := fmt.Sprintf("%d-Maria Silva", time.Now().Year())
	provider.children["root"] = []gdocs.FileRef{
		{ID: "f1", Name: "2023-Outra Pessoa"},
		{ID: "f2", Name: conventional},
	}
	gen := newGenerator(provider, "root")

	id, err := gen.FindOrCreateClientFolder(context.Background(), "Maria Silva")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "f2" {
		t.Fatalf("got folder %q, want f2", id)
	}
	if len(provider.created) != 0 {
		t.Fatalf("no folder should be created, got %v", provider.created)
	}
}

func TestFindOrCreateClientFolderFuzzyMatch(t *testing.T) {
	// Hand-made folders with different casing and spacing still match.
	provider := newFakeProvider()
	provider.children["root"] = []gdocs.FileRef{
		{ID: "f1", Name: "2023 -  maria   silva (cliente antiga)"},
	}
	gen := newGenerator(provider, "root")

	id, err := gen.FindOrCreateClientFolder(context.Background(), "Maria  Silva")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "f1" {
		t.Fatalf("got folder %q, want f1", id)
	}
}

func TestFindOrCreateClientFolderCreates(t *testing.T) {
	provider := newFakeProvider()
	gen := newGenerator(provider, "root")

	id, err := gen.FindOrCreateClientFolder(context.Background(), "João Souza")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected new folder id")
	}
	want := fmt.Sprintf("%d-João Souza", time.Now().Year())
	if len(provider.created) != 1 || provider.created[0] != want {
		t.Fatalf("created = %v, want [%s]", provider.created, want)
	}
}

func TestFindOrCreateClientFolderEmptyName(t *testing.T) {
	gen := newGenerator(newFakeProvider(), "root")
	if _, err := gen.FindOrCreateClientFolder(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty client name")
	}
}
