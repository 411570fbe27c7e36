// Command jenkins-bootstrap installs Jenkins LTS with direct package, file
// and service mutations.
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
	app := cli.NewApp(config.DriverNative, "jenkins-bootstrap", cli.BuildInfo{Version: version, Commit: commit, Date: date})
	os.Exit(cli.Main(app, os.Args[1:]))
}
