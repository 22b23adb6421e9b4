package rules

import "github.com/ppiankov/certmap/internal/model"

// DefaultTable returns the built-in rule table for the Cyber Essentials categories A.1-A.9
func DefaultTable() *Table {
	return &Table{
		Categories: map[string]Category{
			"A.1": {
				Name: "Assets: People",
				Keywords: []string{"training", "awareness", "education", "staff", "employee", "personnel",
					"cybersecurity training", "security awareness", "phishing", "social engineering"},
				Tags:      []string{"TRAINING", "CONTEXT"},
				Audiences: []model.Audience{model.AudienceHR, model.AudienceEmployee},
			},
			"A.2": {
				Name: "Assets: Hardware and Software",
				Keywords: []string{"inventory", "asset", "hardware", "software", "device", "system",
					"laptop", "server", "workstation", "mobile", "equipment"},
				Tags:      []string{"HW/SW INV", "BYOD"},
				Audiences: []model.Audience{model.AudienceIT, model.AudienceOwner},
			},
			"A.3": {
				Name: "Assets: Data",
				Keywords: []string{"data", "information", "classification", "sensitive", "confidential",
					"personal", "backup", "storage", "disposal", "destruction"},
				Tags:      []string{"DATA INV", "DISPOSAL"},
				Audiences: []model.Audience{model.AudienceIT, model.AudienceOwner},
			},
			"A.4": {
				Name: "Secure/Protect: Virus and Malware Protection",
				Keywords: []string{"antivirus", "malware", "virus", "endpoint", "protection", "scanning",
					"quarantine", "threat", "detection", "signatures"},
				Tags:      []string{"MALWARE"},
				Audiences: []model.Audience{model.AudienceIT},
			},
			"A.5": {
				Name: "Secure/Protect: Access Control",
				Keywords: []string{"access", "authentication", "authorization", "password", "login",
					"user account", "permissions", "privileges", "multi-factor", "mfa"},
				Tags:      []string{"ACCT MGMT"},
				Audiences: []model.Audience{model.AudienceIT, model.AudienceOwner},
			},
			"A.6": {
				Name: "Secure/Protect: Secure Configuration",
				Keywords: []string{"configuration", "hardening", "security settings", "default", "baseline",
					"firewall", "network", "secure", "settings"},
				Tags:      []string{"FIREWALL", "NETWORK", "WIFI"},
				Audiences: []model.Audience{model.AudienceIT},
			},
			"A.7": {
				Name: "Update: Software Updates",
				Keywords: []string{"update", "patch", "vulnerability", "software update", "security patch",
					"version", "upgrade", "maintenance"},
				Tags:      []string{"PATCH/VULN"},
				Audiences: []model.Audience{model.AudienceIT},
			},
			"A.8": {
				Name: "Backup: Back up Essential Data",
				Keywords: []string{"backup", "restore", "recovery", "data backup", "business continuity",
					"disaster recovery", "replication"},
				Tags:      []string{"BACKUP"},
				Audiences: []model.Audience{model.AudienceIT, model.AudienceOwner},
			},
			"A.9": {
				Name: "Respond: Incident Response",
				Keywords: []string{"incident", "response", "security incident", "breach", "emergency",
					"contingency", "escalation", "investigation"},
				Tags:      []string{"IR/BCP"},
				Audiences: []model.Audience{model.AudienceIT, model.AudienceOwner},
			},
		},
		Synonyms: map[string]string{
			"people":        "A.1",
			"assets":        "A.2",
			"data":          "A.3",
			"malware":       "A.4",
			"access":        "A.5",
			"configuration": "A.6",
			"updates":       "A.7",
			"backup":        "A.8",
			"incident":      "A.9",
		},
	}
}
