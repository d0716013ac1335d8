// Package config provides configuration loading from environment variables.
package config

import (
	"time"
)

// Default hourly rates in USD for preemptible machine types. Unknown types
// fall back to DefaultHourlyRate; cost estimation is advisory and never fails.
var defaultRates = map[string]float64{
	"n1-standard-16": 0.38,
	"n1-highmem-16":  0.47,
}

// DefaultHourlyRate is used for machine types missing from the rate table.
const DefaultHourlyRate = 0.50

// MachineProfile describes a named VM shape for pipeline runs.
type MachineProfile struct {
	MachineType    string
	BootDiskSizeGB int64
	Preemptible    bool
}

// ServiceConfig holds configuration for the HTTP service.
type ServiceConfig struct {
	Port              string
	MetricsPort       string
	APIKey            string
	ShutdownDrainWait time.Duration // Time to wait for load balancer to drain (0 to skip)
}

// CloudConfig holds the GCP target and pipeline defaults.
type CloudConfig struct {
	ProjectID      string
	Zone           string
	Bucket         string
	CredentialsKey string // path to a service account key file, empty = ADC

	RepositoryURL string // pipeline image source cloned on the instance
	SourceImage   string // boot image for instances
	Network       string

	Profiles    map[string]MachineProfile
	HourlyRates map[string]float64

	DefaultThreads      int
	DefaultMinContigLen int
	MaxFileSizeGB       int

	SignedURLExpiry time.Duration // result download links
	CreateTimeout   time.Duration // bounded instance-creation wait
	CreateInterval  time.Duration // operation poll cadence

	ComputeBackend string // "gce" or "docker" (local dev dry-runs)
}

// LoadServiceConfig loads service configuration from environment variables.
func LoadServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:              GetEnv("PORT", "8080"),
		MetricsPort:       GetEnv("METRICS_PORT", "9090"),
		APIKey:            GetSecretFile(GetEnv("API_KEY_FILE", "")),
		ShutdownDrainWait: GetDurationEnv("SHUTDOWN_DRAIN_WAIT", 5*time.Second),
	}
}

// LoadCloudConfig loads GCP and pipeline configuration from environment variables.
func LoadCloudConfig() *CloudConfig {
	return &CloudConfig{
		ProjectID:      GetEnv("GCP_PROJECT_ID", ""),
		Zone:           GetEnv("GCP_ZONE", "us-central1-a"),
		Bucket:         GetEnv("GCP_BUCKET_NAME", ""),
		CredentialsKey: GetEnv("GCP_SERVICE_ACCOUNT_KEY", ""),

		RepositoryURL: GetEnv("REPOSITORY_URL", "https://github.com/sathishthangasamy/metagenomics.git"),
		SourceImage:   GetEnv("SOURCE_IMAGE", "projects/ubuntu-os-cloud/global/images/family/ubuntu-2204-lts"),
		Network:       GetEnv("NETWORK", "global/networks/default"),

		Profiles: map[string]MachineProfile{
			"standard": {MachineType: "n1-standard-16", BootDiskSizeGB: 100, Preemptible: true},
			"highmem":  {MachineType: "n1-highmem-16", BootDiskSizeGB: 100, Preemptible: true},
		},
		HourlyRates: GetRateTableEnv("MACHINE_RATES", defaultRates),

		DefaultThreads:      GetIntEnv("DEFAULT_THREADS", 16),
		DefaultMinContigLen: GetIntEnv("DEFAULT_MIN_CONTIG_LEN", 1000),
		MaxFileSizeGB:       GetIntEnv("MAX_FILE_SIZE_GB", 30),

		SignedURLExpiry: GetDurationEnv("SIGNED_URL_EXPIRY", 120*time.Minute),
		CreateTimeout:   GetDurationEnv("CREATE_TIMEOUT", 300*time.Second),
		CreateInterval:  GetDurationEnv("CREATE_INTERVAL", 5*time.Second),

		ComputeBackend: GetEnv("COMPUTE_BACKEND", "gce"),
	}
}

// Profile resolves a named machine profile, defaulting to "standard".
func (c *CloudConfig) Profile(name string) (MachineProfile, bool) {
	if name == "" {
		name = "standard"
	}
	p, ok := c.Profiles[name]
	return p, ok
}
