package config

import (
	"fmt"
	"time"
)

const (
	defaultKeyring  = "/usr/share/keyrings/jenkins-keyring.asc"
	defaultRepoLine = "deb [signed-by=" + defaultKeyring + "] https://pkg.jenkins.io/debian-stable binary/"
)

// Defaults returns the target a driver converges to when no file overrides it.
func Defaults(driver string) (*Target, error) {
	t := &Target{
		Driver: driver,
		Packages: PackagesSpec{
			Java:    "openjdk-17-jdk",
			Jenkins: "jenkins",
		},
		Repository: RepositorySpec{
			Line:  defaultRepoLine,
			File:  "/etc/apt/sources.list.d/jenkins.list",
			Token: "jenkins",
		},
		Key: KeySpec{
			URL:    "https://pkg.jenkins.io/debian-stable/jenkins.io-2023.key",
			Path:   defaultKeyring,
			Format: KeyFormatBinary,
		},
		Settings: SettingsSpec{
			Port:            8000,
			DefaultPort:     8080,
			PortMechanism:   MechanismDefaultsFile,
			DisableWizard:   true,
			WizardFlag:      "-Djenkins.install.runSetupWizard=false",
			WizardMechanism: MechanismDefaultsFile,
			ConfigFile:      "/etc/default/jenkins",
			HomeDir:         "/var/lib/jenkins",
		},
		Service: ServiceSpec{
			Name:    "jenkins",
			DropIn:  "/etc/systemd/system/jenkins.service.d/override.conf",
			Backend: "systemctl",
		},
		Readiness: ReadinessSpec{
			URL:            "http://localhost:8000",
			Interval:       5 * time.Second,
			Timeout:        60 * time.Second,
			RequestTimeout: 5 * time.Second,
			LogsHint:       "journalctl -u jenkins -n 50",
		},
		Puppet: PuppetSpec{
			Binary:       "/opt/puppetlabs/bin/puppet",
			ReleaseURL:   "https://apt.puppet.com/puppet-release-jammy.deb",
			ReleaseDeb:   "/tmp/puppet-release.deb",
			AgentPackage: "puppet-agent",
			Module:       "puppetlabs-apt",
			ModuleDir:    "/etc/puppetlabs/code/modules",
			Manifest: ManifestSpec{
				Source: ManifestEmbedded,
				URL:    "https://raw.githubusercontent.com/zambrano-luis/jenkins-automation/main/track1-puppet/manifests/jenkins-linux.pp",
				Dest:   "/tmp/jenkins.pp",
			},
		},
		Validations: []Validation{
			{Type: "command_exists", Command: "java"},
			{Type: "file_exists", Path: "/var/lib/jenkins"},
		},
	}

	switch driver {
	case DriverNative:
	case DriverPuppet:
		// Newer packages read runtime settings from the unit environment.
		t.Key.Format = KeyFormatArmored
		t.Settings.PortMechanism = MechanismSystemdOverride
		t.Settings.WizardMechanism = MechanismSystemdOverride
	default:
		return nil, fmt.Errorf("unknown driver %q", driver)
	}

	return t, nil
}

// PortURL returns the access URL for host on the configured port.
func (t *Target) PortURL(host string) string {
	return fmt.Sprintf("http://%s:%d", host, t.Settings.Port)
}
