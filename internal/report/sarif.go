package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	s3pkg "github.com/ppiankov/s3sentry/internal/s3"
	"github.com/ppiankov/s3sentry/internal/scanner"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"

	sarifRulePublicObject    = "s3sentry/PUBLIC_OBJECT"
	sarifRuleUnknownExposure = "s3sentry/UNKNOWN_EXPOSURE"
	sarifRuleSensitiveData   = "s3sentry/SENSITIVE_DATA"
	sarifRuleOldObject       = "s3sentry/OLD_OBJECT"
)

type SARIFReporter struct {
	writer io.Writer
}

func NewSARIFReporter(w io.Writer) *SARIFReporter {
	return &SARIFReporter{writer: w}
}

type sarifLog struct {
	Schema  string     `json:"$schema,omitempty"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	Name             string       `json:"name,omitempty"`
	ShortDescription sarifMessage `json:"shortDescription,omitempty"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level,omitempty"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation *sarifPhysicalLocation `json:"physicalLocation,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

type sarifRuleMeta struct {
	Name        string
	Description string
	Level       string
}

var sarifRules = map[string]sarifRuleMeta{
	sarifRulePublicObject: {
		Name:        "PublicObject",
		Description: "Object is readable by everyone or by any authenticated user",
		Level:       "error",
	},
	sarifRuleUnknownExposure: {
		Name:        "UnknownExposure",
		Description: "Object access metadata could not be fetched",
		Level:       "warning",
	},
	sarifRuleSensitiveData: {
		Name:        "SensitiveData",
		Description: "Object content matches a sensitive data pattern",
		Level:       "error",
	},
	sarifRuleOldObject: {
		Name:        "OldObject",
		Description: "Object has not been modified within the age threshold",
		Level:       "note",
	},
}

func (r *SARIFReporter) Generate(data Data) error {
	var results []sarifResult
	usedRules := make(map[string]sarifRule)

	for _, bucket := range data.Report.Buckets {
		for _, obj := range bucket.Objects {
			uri := s3URI(obj.Object.Bucket, obj.Object.Key)

			switch obj.Exposure {
			case s3pkg.ExposurePublic:
				message := fmt.Sprintf("Object %s is publicly readable", uri)
				results = appendResult(results, usedRules, sarifRulePublicObject, message, "", objectLocation(uri, 0))
			case s3pkg.ExposureUnknown:
				message := fmt.Sprintf("Exposure of %s could not be determined", uri)
				results = appendResult(results, usedRules, sarifRuleUnknownExposure, message, "", objectLocation(uri, 0))
			}

			for _, f := range obj.Findings {
				value := f.Masked
				if f.Match != "" {
					value = f.Match
				}
				message := fmt.Sprintf("%s detected: %s", f.Category, value)
				results = appendResult(results, usedRules, sarifRuleSensitiveData, message, severityToLevel(f.Severity), objectLocation(uri, f.Line))
			}

			if obj.AgeFlag != nil {
				message := fmt.Sprintf("Object %s is %d days old (threshold %d)",
					uri, obj.AgeFlag.AgeDays, obj.AgeFlag.ThresholdDays)
				results = appendResult(results, usedRules, sarifRuleOldObject, message, "", objectLocation(uri, 0))
			}
		}
	}

	return r.writeSARIF(data.Tool, data.Version, results, usedRules)
}

func (r *SARIFReporter) writeSARIF(toolName, toolVersion string, results []sarifResult, usedRules map[string]sarifRule) error {
	ruleIDs := make([]string, 0, len(usedRules))
	for id := range usedRules {
		ruleIDs = append(ruleIDs, id)
	}
	sort.Strings(ruleIDs)

	rules := make([]sarifRule, 0, len(ruleIDs))
	for _, id := range ruleIDs {
		rules = append(rules, usedRules[id])
	}

	log := sarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:    toolName,
					Version: toolVersion,
					Rules:   rules,
				},
			},
			Results: results,
		}},
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(log)
}

func appendResult(results []sarifResult, usedRules map[string]sarifRule, ruleID, message, level string, locations []sarifLocation) []sarifResult {
	rule := sarifRule{ID: ruleID}
	if meta, ok := sarifRules[ruleID]; ok {
		rule.Name = meta.Name
		rule.ShortDescription = sarifMessage{Text: meta.Description}
		if level == "" {
			level = meta.Level
		}
	}
	if level == "" {
		level = "warning"
	}
	if message == "" {
		message = rule.ShortDescription.Text
	}
	if _, exists := usedRules[ruleID]; !exists {
		usedRules[ruleID] = rule
	}

	results = append(results, sarifResult{
		RuleID:    ruleID,
		Level:     level,
		Message:   sarifMessage{Text: message},
		Locations: locations,
	})

	return results
}

func objectLocation(uri string, line int) []sarifLocation {
	if uri == "" {
		return nil
	}
	physical := &sarifPhysicalLocation{
		ArtifactLocation: sarifArtifactLocation{URI: uri},
	}
	if line > 0 {
		physical.Region = &sarifRegion{StartLine: line}
	}
	return []sarifLocation{{PhysicalLocation: physical}}
}

func s3URI(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		cleaned = append(cleaned, strings.TrimPrefix(part, "/"))
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "s3://" + strings.Join(cleaned, "/")
}

// severityToLevel maps a finding severity onto the SARIF level scale.
func severityToLevel(s scanner.Severity) string {
	switch s {
	case scanner.SeverityCritical, scanner.SeverityHigh:
		return "error"
	case scanner.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
