package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

const EnvVarPrefix = "REPORTER"

// The metrics-surface flags bind to the bare environment variable names the
// surrounding tooling already sets, not the prefixed scheme, so the reporter
// drops into existing CI jobs unchanged.
var (
	VictoriaURL = &cli.StringFlag{
		Name:    "victoria-url",
		Value:   "",
		EnvVars: []string{"VICTORIA_URL"},
		Usage:   "Target endpoint for the metrics push",
	}
	RunID = &cli.StringFlag{
		Name:    "run-id",
		Value:   "",
		EnvVars: []string{"QASE_TESTOPS_RUN_ID"},
		Usage:   "Test run identifier attached to every record",
	}
	Project = &cli.StringFlag{
		Name:    "project",
		Value:   "",
		EnvVars: []string{"QASE_TESTOPS_PROJECT"},
		Usage:   "TestOps project the run belongs to",
	}
	Platform = &cli.StringFlag{
		Name:    "platform",
		Value:   "",
		EnvVars: []string{"PLATFORM"},
		Usage:   "Execution platform label attached to every record",
	}
	PushToVictoria = &cli.StringFlag{
		Name:    "push-to-victoria",
		Value:   "",
		EnvVars: []string{"PUSH_TO_VICTORIA"},
		Usage:   "Set to 'true' to push metrics remotely; anything else writes the local fallback artifact",
	}
	MultipleReport = &cli.StringFlag{
		Name:    "multiple-report",
		Value:   "",
		EnvVars: []string{"MULTIPLE_REPORT"},
		Usage:   "Unset or 'true' prefixes partial-store artifacts with the pillar so concurrent runs can share a directory",
	}
	DeleteTempFile = &cli.StringFlag{
		Name:    "delete-temp-file",
		Value:   "",
		EnvVars: []string{"DELETE_TEMP_FILE"},
		Usage:   "Unset or 'true' deletes partial-store artifacts after merging; anything else retains them",
	}
	Pillar = &cli.StringFlag{
		Name:    "pillar",
		Value:   "",
		EnvVars: []string{"PILLAR"},
		Usage:   "Deployment pillar used in artifact naming and the fallback path",
	}
	Worker = &cli.StringFlag{
		Name:    "worker",
		Value:   "",
		EnvVars: []string{"WORKER"},
		Usage:   "Worker identity marker; non-empty in sub-worker processes, empty in the coordinator",
	}
	ResultsDir = &cli.StringFlag{
		Name:    "results-dir",
		Value:   ".",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RESULTS_DIR"),
		Usage:   "Directory holding partial-store artifacts",
	}
	PushTimeout = &cli.DurationFlag{
		Name:    "push-timeout",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PUSH_TIMEOUT"),
		Usage:   "Timeout for a single metrics push (defaults to 300s)",
	}
	LegacyDiscovery = &cli.BoolFlag{
		Name:    "legacy-discovery",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LEGACY_DISCOVERY"),
		Usage:   "Match partial-store artifacts by substring instead of the strict naming pattern",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIG"),
		Usage:   "Optional reporter config file (eg. 'reporter.yaml') providing defaults for unset flags",
	}
)

// No flag is required: missing configuration surfaces downstream as a failed
// request or a 'None' label, never as a startup failure.
var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	VictoriaURL,
	RunID,
	Project,
	Platform,
	PushToVictoria,
	MultipleReport,
	DeleteTempFile,
	Pillar,
	Worker,
	ResultsDir,
	PushTimeout,
	LegacyDiscovery,
	ConfigFile,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

// CheckRequired checks that any required flags are set.
func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
