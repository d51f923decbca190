package sftpclient

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Host: "test-host", User: "test-user", Pass: "test-pass"}.withDefaults()

	if cfg.Port != 22 {
		t.Errorf("Expected default Port to be 22, got %d", cfg.Port)
	}
	if cfg.RemoteDir != "/" {
		t.Errorf("Expected default RemoteDir to be '/', got %q", cfg.RemoteDir)
	}
}

func TestHostKeyCallback(t *testing.T) {
	if _, err := hostKeyCallback(Config{}); !errors.Is(err, ErrNoHostKeyPolicy) {
		t.Errorf("Expected ErrNoHostKeyPolicy, got %v", err)
	}

	cb, err := hostKeyCallback(Config{InsecureIgnoreHostKey: true})
	if err != nil || cb == nil {
		t.Errorf("Expected insecure callback, got %v", err)
	}

	if _, err := hostKeyCallback(Config{KnownHosts: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Errorf("Expected error for missing known_hosts file")
	}

	kh := filepath.Join(t.TempDir(), "known_hosts")
	if err := os.WriteFile(kh, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	cb, err = hostKeyCallback(Config{KnownHosts: kh})
	if err != nil || cb == nil {
		t.Errorf("Expected known_hosts callback, got %v", err)
	}
}

func TestUploadFileValidation(t *testing.T) {
	ctx := context.Background()

	const (
		testHost = "test-host"
		testUser = "test-user"
		testPass = "test-pass"
		testFile = "report.csv"
	)

	testCases := []struct {
		name          string
		cfg           Config
		localPath     string
		errorContains string
	}{
		{
			name:          "Missing credentials",
			cfg:           Config{},
			localPath:     testFile,
			errorContains: "sftp: missing env SFTP_HOST / SFTP_USER / SFTP_PASS",
		},
		{
			name:          "No host key policy",
			cfg:           Config{Host: testHost, User: testUser, Pass: testPass},
			localPath:     testFile,
			errorContains: "SFTP_KNOWN_HOSTS",
		},
		{
			name:          "Non-existent local file",
			cfg:           Config{Host: testHost, User: testUser, Pass: testPass, InsecureIgnoreHostKey: true},
			localPath:     filepath.Join(t.TempDir(), "non_existent_file.csv"),
			errorContains: "sftp: open local file",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := UploadFile(ctx, tc.cfg, tc.localPath, testFile)
			if err == nil {
				t.Fatalf("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.errorContains) {
				t.Errorf("Expected error to contain %q, got %q", tc.errorContains, err.Error())
			}
		})
	}
}

func TestUploadFileCanceled(t *testing.T) {
	local := filepath.Join(t.TempDir(), "report.csv")
	if err := os.WriteFile(local, []byte("RUN_ID\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{Host: "192.0.2.1", User: "u", Pass: "p", InsecureIgnoreHostKey: true}
	err := UploadFile(ctx, cfg, local, "report.csv")
	if err == nil {
		t.Fatalf("Expected error, got nil")
	}
	// The dial may fail before the select observes the cancellation.
	if !errors.Is(err, context.Canceled) && !strings.Contains(err.Error(), "sftp: dial error") {
		t.Errorf("Expected cancellation or dial error, got %v", err)
	}
}
