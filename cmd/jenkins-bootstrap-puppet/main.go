// Command jenkins-bootstrap-puppet installs Jenkins LTS by bootstrapping
// puppet and applying a manifest.
package main

import (
	"os"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/cli"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := cli.NewApp(config.DriverPuppet, "jenkins-bootstrap-puppet", cli.BuildInfo{Version: version, Commit: commit, Date: date})
	os.Exit(cli.Main(app, os.Args[1:]))
}
