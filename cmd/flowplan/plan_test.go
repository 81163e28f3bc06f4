package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pmorrow/flowplan/pkg/models"
)

func TestLoadWorkflowFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workflow.json")

	content := `{
  "title": "Invoices",
  "tasks": [
    {"id": "T1", "title": "Extract data", "actor": "agent"},
    {"id": "T2", "title": "Approve", "actor": "human", "depends_on": ["T1"], "approval": true}
  ],
  "version": "0.1"
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write workflow file: %v", err)
	}

	wf, err := loadWorkflowFile(path)
	if err != nil {
		t.Fatalf("loadWorkflowFile failed: %v", err)
	}

	if wf.Title != "Invoices" {
		t.Errorf("title = %q, want 'Invoices'", wf.Title)
	}
	if len(wf.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(wf.Tasks))
	}
	if wf.Tasks[1].Actor != models.ActorHuman || !wf.Tasks[1].Approval {
		t.Errorf("unexpected second task: %+v", wf.Tasks[1])
	}
	if len(wf.Tasks[1].DependsOn) != 1 || wf.Tasks[1].DependsOn[0] != "T1" {
		t.Errorf("depends_on not parsed: %v", wf.Tasks[1].DependsOn)
	}
}

func TestLoadWorkflowFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workflow.yaml")

	content := `
title: Invoices
tasks:
  - id: T1
    title: Extract data
    actor: agent
  - id: T2
    title: Approve
    actor: human
    approval: true
    depends_on:
      - T1
version: "0.1"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write workflow file: %v", err)
	}

	wf, err := loadWorkflowFile(path)
	if err != nil {
		t.Fatalf("loadWorkflowFile failed: %v", err)
	}

	if wf.Title != "Invoices" {
		t.Errorf("title = %q, want 'Invoices'", wf.Title)
	}
	if len(wf.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(wf.Tasks))
	}
	if wf.Tasks[1].DependsOn[0] != "T1" {
		t.Errorf("depends_on not parsed from YAML: %v", wf.Tasks[1].DependsOn)
	}
}

func TestLoadWorkflowFileMissing(t *testing.T) {
	if _, err := loadWorkflowFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadWorkflowFileBadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workflow.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatalf("write workflow file: %v", err)
	}

	if _, err := loadWorkflowFile(path); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}
