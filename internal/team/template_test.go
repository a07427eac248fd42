package team

import (
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/teamctl/internal/errors"
)

func TestRenderTemplate(t *testing.T) {
	out := RenderTemplate(TemplateParams{
		Name:      "backend",
		Lead:      "EMP_0001",
		Members:   []string{"EMP_0001", "EMP_0002"},
		AgentName: func(id string) string { return map[string]string{"EMP_0001": "ada"}[id] },
	})

	for _, want := range []string{
		"---\nname: backend\ndescription: Team description\nlead_agent: EMP_0001\nmembers:\n",
		"      - employee_id: EMP_0002\n        role: member\n",
		"# BACKEND TEAM\n",
		"## Description\nTeam description\n",
		"```mermaid\ngraph TD\n",
		"1. **Lead Agent** (EMP_0001) receives task",
		"- **EMP_0001** (ada): team lead 👑\n",
		"- **EMP_0002** (): member\n",
		"teamctl assign backend <<EOF",
		"teamctl monitor backend --follow",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("template missing %q", want)
		}
	}
}

func TestWriteTemplate_ParsesBack(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore("/repo/teams", WithFs(fs))

	result, err := store.WriteTemplate(TemplateParams{
		Name:        "qa",
		Description: "Quality team",
		Lead:        "EMP_0003",
		Members:     []string{"EMP_0003", "EMP_0004"},
	}, false)
	if err != nil {
		t.Fatalf("WriteTemplate() error = %v", err)
	}
	if !result.CreatedDir {
		t.Error("CreatedDir = false, want true for a missing directory")
	}
	if result.Path != "/repo/teams/qa.md" {
		t.Errorf("Path = %q", result.Path)
	}

	cfg, err := store.Resolve("qa")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if problems := Validate(cfg); len(problems) != 0 {
		t.Errorf("Validate() = %v, want none", problems)
	}
	if !slices.Equal(cfg.Members.IDs(), []string{"EMP_0003", "EMP_0004"}) {
		t.Errorf("Members = %v", cfg.Members)
	}
	if cfg.Description != "Quality team" {
		t.Errorf("Description = %q", cfg.Description)
	}
}

func TestWriteTemplate_RefusesOverwrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore("/teams", WithFs(fs))
	params := TemplateParams{Name: "qa", Lead: "EMP_1", Members: []string{"EMP_1"}}

	if _, err := store.WriteTemplate(params, false); err != nil {
		t.Fatal(err)
	}

	_, err := store.WriteTemplate(params, false)
	if !errors.Is(err, errors.ErrTeamExists) {
		t.Fatalf("second WriteTemplate() error = %v, want ErrTeamExists", err)
	}
	if hints := errors.Hints(err); !slices.Contains(hints, "Use --force to overwrite") {
		t.Errorf("Hints() = %v", hints)
	}

	params.Description = "replaced"
	if _, err := store.WriteTemplate(params, true); err != nil {
		t.Fatalf("forced WriteTemplate() error = %v", err)
	}
	cfg, err := store.Resolve("qa")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Description != "replaced" {
		t.Errorf("Description = %q, want replaced", cfg.Description)
	}
}
