package report

import (
	"time"

	"github.com/ppiankov/s3sentry/internal/analyzer"
)

// Reporter interface for different report formats
type Reporter interface {
	Generate(data Data) error
}

// Data contains all report data
type Data struct {
	Tool      string           `json:"tool"`
	Version   string           `json:"version"`
	Timestamp time.Time        `json:"timestamp"`
	Config    Config           `json:"config"`
	Report    *analyzer.Report `json:"report"`
}

// Config records the scan parameters the report was produced with
type Config struct {
	Scan         string   `json:"scan"`
	Buckets      []string `json:"buckets,omitempty"`
	AllBuckets   bool     `json:"all_buckets,omitempty"`
	Folder       string   `json:"folder,omitempty"`
	AWSProfile   string   `json:"aws_profile,omitempty"`
	AWSRegion    string   `json:"aws_region,omitempty"`
	PublicOnly   bool     `json:"public_only,omitempty"`
	DayThreshold int      `json:"day_threshold,omitempty"`
}
