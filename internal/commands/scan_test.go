package commands

import (
	"testing"
	"time"

	"github.com/ppiankov/s3sentry/internal/config"
)

func TestScanFlagDefaults(t *testing.T) {
	if scanFlags.outputFormat != "text" {
		t.Fatalf("expected default format 'text', got %q", scanFlags.outputFormat)
	}
	if scanFlags.concurrency != 10 {
		t.Fatalf("expected default concurrency 10, got %d", scanFlags.concurrency)
	}
	if scanFlags.dayThreshold != 365 {
		t.Fatalf("expected default day threshold 365, got %d", scanFlags.dayThreshold)
	}
	if scanExposeCmd.Flags().Lookup("all") == nil {
		t.Fatal("expose command missing --all flag")
	}
	if scanSensitiveCmd.Flags().Lookup("exclude-gitleaks") == nil {
		t.Fatal("sensitive command missing --exclude-gitleaks flag")
	}
	if scanOldCmd.Flags().Lookup("day").DefValue != "365" {
		t.Fatalf("expected day flag default 365, got %q", scanOldCmd.Flags().Lookup("day").DefValue)
	}
}

func TestScanContext(t *testing.T) {
	ctx, cancel := scanContext()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("unexpected deadline without --timeout")
	}
	cancel()
	if ctx.Err() == nil {
		t.Fatal("expected context cancelled after cancel")
	}

	scanFlags.timeout = time.Minute
	t.Cleanup(func() { scanFlags.timeout = 0 })

	ctx, cancel = scanContext()
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected deadline when --timeout is set")
	}
}

func TestApplyConfigToScanFlags(t *testing.T) {
	oldCfg := cfg
	oldFlags := scanFlags
	t.Cleanup(func() {
		cfg = oldCfg
		scanFlags = oldFlags
	})

	cfg = config.Config{
		Profile:      "audit",
		Region:       "eu-west-1",
		Format:       "json",
		Concurrency:  4,
		DayThreshold: 180,
	}

	applyConfigToScanFlags(scanOldCmd)

	if scanFlags.awsProfile != "audit" {
		t.Errorf("profile not applied from config: %q", scanFlags.awsProfile)
	}
	if scanFlags.awsRegion != "eu-west-1" {
		t.Errorf("region not applied from config: %q", scanFlags.awsRegion)
	}
	if scanFlags.outputFormat != "json" {
		t.Errorf("format not applied from config: %q", scanFlags.outputFormat)
	}
	if scanFlags.concurrency != 4 {
		t.Errorf("concurrency not applied from config: %d", scanFlags.concurrency)
	}
	if scanFlags.dayThreshold != 180 {
		t.Errorf("day threshold not applied from config: %d", scanFlags.dayThreshold)
	}
}

func TestApplyConfigRespectsExplicitFlags(t *testing.T) {
	oldCfg := cfg
	oldFlags := scanFlags
	t.Cleanup(func() {
		cfg = oldCfg
		scanFlags = oldFlags
		scanOldCmd.Flags().Lookup("day").Changed = false
	})

	cfg = config.Config{DayThreshold: 180}
	scanFlags.dayThreshold = 30
	scanOldCmd.Flags().Lookup("day").Changed = true

	applyConfigToScanFlags(scanOldCmd)

	if scanFlags.dayThreshold != 30 {
		t.Errorf("explicit flag overridden by config: %d", scanFlags.dayThreshold)
	}
}
