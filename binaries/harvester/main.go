package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	harvesterrors "github.com/4rg0n/bitburner-sub000/common/errors"
	"github.com/4rg0n/bitburner-sub000/harvest/cli"
)

// CLI binary driving the harvest scheduler
//	Supported commands: (see "-h" for all options)
//		run [--admin_addr <host:port>] [--duration <d>]
//		step [--count <n>]
//		status
//		cleanup
//		deploy
//		configs [--show]
//	Global flags:
//		--config [<named config|inline json|.json/.yaml file>]
//		--log_level [<error|info|debug> level and above should be logged]
//		--log_json

func main() {
	if err := cli.NewCLI(os.Stdout).Exec(); err != nil {
		log.Errorf("Error running harvester: %v", err)
		os.Exit(int(harvesterrors.ExitCodeOf(err)))
	}
}
