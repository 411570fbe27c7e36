package config

import "time"

// Driver names the convergence mechanism.
const (
	DriverNative = "native"
	DriverPuppet = "puppet"
)

// Key formats accepted for the repository keyring.
const (
	KeyFormatBinary  = "binary"
	KeyFormatArmored = "armored"
)

// Mechanisms a runtime setting can be written through.
const (
	MechanismDefaultsFile    = "defaults-file"
	MechanismSystemdOverride = "systemd-override"
)

// Manifest sources for the puppet driver.
const (
	ManifestEmbedded = "embedded"
	ManifestHTTP     = "http"
	ManifestGit      = "git"
)

// Target is the declarative goal of a run. It is built once at start-up and
// treated as read-only afterwards.
type Target struct {
	Driver     string         `yaml:"driver" validate:"required,oneof=native puppet"`
	Packages   PackagesSpec   `yaml:"packages"`
	Repository RepositorySpec `yaml:"repository"`
	Key        KeySpec        `yaml:"key"`
	Settings   SettingsSpec   `yaml:"settings"`
	Service    ServiceSpec    `yaml:"service"`
	Readiness  ReadinessSpec  `yaml:"readiness"`
	Puppet     PuppetSpec     `yaml:"puppet"`
	Metrics    MetricsSpec    `yaml:"metrics"`

	Validations []Validation `yaml:"validations" validate:"dive"`
}

// PackagesSpec lists the packages installed by the native driver.
type PackagesSpec struct {
	Java    string `yaml:"java" validate:"required"`
	Jenkins string `yaml:"jenkins" validate:"required"`
}

// RepositorySpec describes the apt source for the service package.
type RepositorySpec struct {
	Line  string `yaml:"line" validate:"required,apt_source"`
	File  string `yaml:"file" validate:"required,abs_path"`
	Token string `yaml:"token" validate:"required"`
}

// KeySpec describes the trust material that signs the repository.
type KeySpec struct {
	URL    string `yaml:"url" validate:"required,url"`
	Path   string `yaml:"path" validate:"required,abs_path"`
	Format string `yaml:"format" validate:"required,key_format"`
}

// SettingsSpec describes the runtime settings of the service.
type SettingsSpec struct {
	Port            int    `yaml:"port" validate:"required,min=1,max=65535"`
	DefaultPort     int    `yaml:"default_port" validate:"min=0,max=65535"`
	PortMechanism   string `yaml:"port_mechanism" validate:"required,mechanism"`
	DisableWizard   bool   `yaml:"disable_wizard"`
	WizardFlag      string `yaml:"wizard_flag" validate:"required"`
	WizardMechanism string `yaml:"wizard_mechanism" validate:"required,mechanism"`
	ConfigFile      string `yaml:"config_file" validate:"required,abs_path"`
	HomeDir         string `yaml:"home_dir" validate:"required,abs_path"`
}

// ServiceSpec identifies the managed unit.
type ServiceSpec struct {
	Name    string `yaml:"name" validate:"required"`
	DropIn  string `yaml:"drop_in" validate:"required,abs_path"`
	Backend string `yaml:"backend" validate:"required,oneof=systemctl dbus"`
}

// ReadinessSpec bounds the HTTP readiness poll.
type ReadinessSpec struct {
	URL            string        `yaml:"url" validate:"required,url"`
	Interval       time.Duration `yaml:"interval" validate:"gt=0"`
	Timeout        time.Duration `yaml:"timeout" validate:"gtfield=Interval"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	LogsHint       string        `yaml:"logs_hint"`
}

// PuppetSpec configures the puppet driver bootstrap.
type PuppetSpec struct {
	Binary       string       `yaml:"binary" validate:"required,abs_path"`
	ReleaseURL   string       `yaml:"release_url" validate:"required,url"`
	ReleaseDeb   string       `yaml:"release_deb" validate:"required,abs_path"`
	AgentPackage string       `yaml:"agent_package" validate:"required"`
	Module       string       `yaml:"module" validate:"required"`
	ModuleDir    string       `yaml:"module_dir" validate:"required,abs_path"`
	Manifest     ManifestSpec `yaml:"manifest"`
}

// ManifestSpec says where the puppet manifest comes from and where it lands.
type ManifestSpec struct {
	Source     string `yaml:"source" validate:"required,oneof=embedded http git"`
	URL        string `yaml:"url" validate:"omitempty,url"`
	Repository string `yaml:"repository" validate:"required_if=Source git"`
	Ref        string `yaml:"ref"`
	Path       string `yaml:"path" validate:"required_if=Source git"`
	Dest       string `yaml:"dest" validate:"required,abs_path"`
}

// MetricsSpec enables the node_exporter textfile output when Textfile is set.
type MetricsSpec struct {
	Textfile string `yaml:"textfile" validate:"omitempty,abs_path"`
}

// Validation is a post-install check.
type Validation struct {
	Type    string `yaml:"type" validate:"required,oneof=command_exists file_exists path_contains"`
	Command string `yaml:"command" validate:"required_if=Type command_exists"`
	Path    string `yaml:"path" validate:"required_if=Type file_exists,required_if=Type path_contains"`
	Text    string `yaml:"text" validate:"required_if=Type path_contains"`
}
