package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestConfig tests the configuration struct and constants
func TestConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name: "Default configuration",
			config: Config{
				Frequency:    DefaultFrequency,
				SampleRate:   DefaultSampleRate,
				Gain:         DefaultGain,
				DeviceIndex:  0,
				LogDir:       "./logs",
				LogRotateUTC: true,
				Verbose:      false,
				ShowVersion:  false,
			},
		},
		{
			name: "Custom configuration",
			config: Config{
				Frequency:    1090500000,
				SampleRate:   2000000,
				Gain:         30,
				DeviceIndex:  1,
				LogDir:       "/tmp/logs",
				LogRotateUTC: false,
				Verbose:      true,
				ShowVersion:  true,
				FixErrors:    true,
				Aggressive:   true,
				CheckCRC:     true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.config.Frequency, tt.config.Frequency)
			assert.Equal(t, tt.config.SampleRate, tt.config.SampleRate)
			assert.Equal(t, tt.config.Gain, tt.config.Gain)
		})
	}
}

// TestConstants tests the default configuration constants
func TestConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant interface{}
		expected interface{}
	}{
		{
			name:     "DefaultFrequency",
			constant: DefaultFrequency,
			expected: uint32(1090000000), // 1090 MHz
		},
		{
			name:     "DefaultSampleRate",
			constant: DefaultSampleRate,
			expected: uint32(2000000), // 2 MHz
		},
		{
			name:     "DefaultGain",
			constant: DefaultGain,
			expected: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.constant)
		})
	}
}

// TestShowVersion tests the version display functionality
func TestShowVersion(t *testing.T) {
	assert.NotPanics(t, func() {
		ShowVersion()
	})
}

// TestNewApplication tests the application constructor
func TestNewApplication(t *testing.T) {
	config := Config{
		Frequency:    DefaultFrequency,
		SampleRate:   DefaultSampleRate,
		Gain:         DefaultGain,
		DeviceIndex:  0,
		LogDir:       "./test_logs",
		LogRotateUTC: true,
		Verbose:      false,
		ShowVersion:  false,
	}

	app := NewApplication(config)

	assert.NotNil(t, app)
	assert.NotNil(t, app.logger)
	assert.Equal(t, config.LogDir, app.config.LogDir)
}

func TestNewApplication_NilComponentsBeforeStart(t *testing.T) {
	config := Config{
		Frequency:  DefaultFrequency,
		SampleRate: DefaultSampleRate,
		Gain:       DefaultGain,
		LogDir:     "./test_logs",
	}

	app := NewApplication(config)
	assert.Nil(t, app.decoder)
	assert.Nil(t, app.tracker)
	assert.Nil(t, app.baseStation)
}

// TestApplication_LoggerConfiguration tests logger setup
func TestApplication_LoggerConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
	}{
		{name: "Verbose logging", verbose: true},
		{name: "Normal logging", verbose: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Config{
				Frequency:    DefaultFrequency,
				SampleRate:   DefaultSampleRate,
				Gain:         DefaultGain,
				DeviceIndex:  0,
				LogDir:       "./test_logs",
				LogRotateUTC: true,
				Verbose:      tt.verbose,
			}

			app := NewApplication(config)
			assert.NotNil(t, app.logger)
			assert.Equal(t, tt.verbose, app.verbose)
		})
	}
}

func TestCarryoverSamplesSize(t *testing.T) {
	// The carryover window must cover a full long message plus a
	// preamble, so a preamble starting at the very end of a buffer is
	// never missed across a Detect call boundary.
	assert.Greater(t, carryoverSamples, 112*2)
}

// Cleanup test logs
func TestMain(m *testing.M) {
	code := m.Run()
	os.RemoveAll("./test_logs")
	os.Exit(code)
}
