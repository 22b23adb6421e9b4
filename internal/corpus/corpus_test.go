package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ppiankov/certmap/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadProvisions_Formats(t *testing.T) {
	expected := []model.Provision{
		{ID: "A.1.4a", Text: "Staff shall complete awareness training.", Kind: model.KindMandatory, Tags: []string{"TRAINING"}, Audiences: []model.Audience{model.AudienceHR}},
		{ID: "A.8.1b", Text: "Backups should be tested.", Kind: model.KindRecommended},
	}

	tests := []struct {
		name    string
		content string
		desc    string
	}{
		{
			name: "provisions.yaml",
			content: `provisions:
  - id: A.1.4a
    text: Staff shall complete awareness training.
    requirement_type: shall
    tags: [TRAINING]
    audiences: [hr]
  - id: A.8.1b
    text: Backups should be tested.
`,
			desc: "yaml mapping",
		},
		{
			name: "provisions.yml",
			content: `- id: A.1.4a
  text: Staff shall complete awareness training.
  kind: mandatory
  tags: [TRAINING]
  audiences: [HR]
- id: A.8.1b
  text: Backups should be tested.
  kind: should
`,
			desc: "yaml list",
		},
		{
			name: "provisions.json",
			content: `[
  {"id": "A.1.4a", "text": "Staff shall complete awareness training.", "kind": "shall", "tags": ["TRAINING"], "audiences": ["HR"]},
  {"id": "A.8.1b", "text": "Backups should be tested.", "kind": "recommended"}
]`,
			desc: "json list",
		},
		{
			name: "provisions.csv",
			content: `# exported corpus
id,text,kind,tags,audiences
A.1.4a,Staff shall complete awareness training.,shall,TRAINING,HR
A.8.1b,Backups should be tested.,should,,
`,
			desc: "csv",
		},
		{
			name: "provisions.html",
			content: `<html><body>
<p>Provisions</p>
<table>
  <thead><tr><th>Provision ID</th><th>Requirement</th><th>Requirement Type</th><th>Group Tags</th><th>Audience</th></tr></thead>
  <tbody>
    <tr><td>A.1.4a</td><td>Staff shall complete <b>awareness</b>
      training.</td><td>shall</td><td>TRAINING</td><td>HR</td></tr>
    <tr><td>A.8.1b</td><td>Backups should be tested.</td><td>should</td><td></td><td></td></tr>
  </tbody>
</table>
</body></html>`,
			desc: "html table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := LoadProvisions(writeFile(t, tt.name, tt.content))
			if err != nil {
				t.Fatalf("LoadProvisions failed: %v", err)
			}
			if !reflect.DeepEqual(got, expected) {
				t.Errorf("Expected %+v, got %+v", expected, got)
			}
		})
	}
}

func TestLoadProvisions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		desc    string
	}{
		{name: "p.yaml", content: "- text: no id\n", desc: "missing id"},
		{name: "p.yaml", content: "- id: A.1.1\n  audiences: [Auditor]\n", desc: "unknown audience"},
		{name: "p.yaml", content: "rules: []\n", desc: "missing provisions key"},
		{name: "p.json", content: `{"provisions": [`, desc: "truncated json"},
		{name: "p.csv", content: "name,body\nx,y\n", desc: "csv without id/text columns"},
		{name: "p.html", content: "<p>no table</p>", desc: "html without table"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, err := LoadProvisions(writeFile(t, tt.name, tt.content)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestLoadProvisions_UnsupportedFormat(t *testing.T) {
	_, err := LoadProvisions(writeFile(t, "provisions.txt", "A.1.1 something"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadQuestions(t *testing.T) {
	csvPath := writeFile(t, "questions.csv", `question_id,question,group_tag,audience,named_category
Q1,Do you back up data?,BACKUP,it,backup
,Text without id,,,
Q3,,,,
`)

	got, err := LoadQuestions(csvPath)
	if err != nil {
		t.Fatalf("LoadQuestions failed: %v", err)
	}

	expected := []model.Question{
		{ID: "Q1", Text: "Do you back up data?", Tag: "BACKUP", Audience: model.AudienceIT, NamedCategory: "backup"},
		{Text: "Text without id"},
		{ID: "Q3"},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %+v, got %+v", expected, got)
	}

	yamlPath := writeFile(t, "questions.yaml", `questions:
  - id: Q1
    question: Is MFA enforced?
    audience: Auditor
`)
	got, err = LoadQuestions(yamlPath)
	if err != nil {
		t.Fatalf("LoadQuestions failed: %v", err)
	}
	if len(got) != 1 || got[0].Audience != "Auditor" {
		t.Errorf("Expected unknown audience kept verbatim, got %+v", got)
	}
}

func TestLoadJudgments(t *testing.T) {
	path := writeFile(t, "judgments.yaml", `judgments:
  - provision_id: A.1.4a
    requirement_kind: shall
    compliance_status: compliant
    score: 92
    rationale: Training records provided.
    recommendations: [Keep records current]
  - provision_id: A.8.1b
    compliance_status: PARTIAL
    score: 60
    critical_issues: [Restores untested]
`)

	got, err := LoadJudgments(path)
	if err != nil {
		t.Fatalf("LoadJudgments failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 judgments, got %d", len(got))
	}
	if got[0].Status != model.StatusCompliant || got[0].Kind != model.KindMandatory || got[0].Score != 92 {
		t.Errorf("Unexpected first judgment: %+v", got[0])
	}
	if got[1].Kind != "" {
		t.Errorf("Expected unknown kind to stay empty, got %q", got[1].Kind)
	}

	invalid := []struct {
		content string
		desc    string
	}{
		{content: `[{"provision_id": "A.1", "compliance_status": "GREAT", "score": 10}]`, desc: "unknown status"},
		{content: `[{"provision_id": "A.1", "compliance_status": "COMPLIANT"}]`, desc: "missing score"},
		{content: `[{"provision_id": "A.1", "compliance_status": "COMPLIANT", "score": 120}]`, desc: "score out of range"},
		{content: `[{"compliance_status": "COMPLIANT", "score": 10}]`, desc: "missing provision id"},
	}
	for _, tt := range invalid {
		if _, err := LoadJudgments(writeFile(t, "judgments.json", tt.content)); err == nil {
			t.Errorf("%s: expected error, got nil", tt.desc)
		}
	}

	_, err = LoadJudgments(writeFile(t, "judgments.csv", "provision_id,score\nA.1,10\n"))
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("Expected ErrNotSupported for csv judgments, got %v", err)
	}
}

func TestLoadAnswers(t *testing.T) {
	path := writeFile(t, "answers.json", `{"answers": [
  {"id": "Q1", "question": "Do you back up data?", "named_category": "backup", "answer": "Nightly, tested monthly.",
   "evidence_files": ["backup-policy.pdf", " restore-log.csv "], "answered_by": "IT Manager", "confidence_level": "high"},
  {"id": "Q2", "text": "Is MFA enforced?", "answer": ""}
]}`)

	got, err := LoadAnswers(path)
	if err != nil {
		t.Fatalf("LoadAnswers failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 answers, got %d", len(got))
	}
	if got[0].ID != "Q1" || got[0].NamedCategory != "backup" || got[0].Answer != "Nightly, tested monthly." {
		t.Errorf("Unexpected first answer: %+v", got[0])
	}
	if !reflect.DeepEqual(got[0].EvidenceFiles, []string{"backup-policy.pdf", "restore-log.csv"}) ||
		got[0].AnsweredBy != "IT Manager" || got[0].AnswerConfidence != "high" {
		t.Errorf("Expected respondent details on first answer, got %+v", got[0])
	}
	if got[1].Text != "Is MFA enforced?" {
		t.Errorf("Expected text alias to populate the question, got %+v", got[1])
	}

	if _, err := LoadAnswers(writeFile(t, "answers.yaml", "- answer: orphan\n")); err == nil {
		t.Error("Expected error for answer without question")
	}
}

func TestRegistry_Extensions(t *testing.T) {
	expected := []string{".csv", ".htm", ".html", ".json", ".yaml", ".yml"}
	if got := NewRegistry().Extensions(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
