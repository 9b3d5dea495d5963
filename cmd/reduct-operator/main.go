package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reductstore/reduct-operator/pkg/config"
	"github.com/reductstore/reduct-operator/pkg/controller"
	"github.com/reductstore/reduct-operator/pkg/log"
	"github.com/reductstore/reduct-operator/pkg/observe"
	"github.com/reductstore/reduct-operator/pkg/reconciler"
	"github.com/reductstore/reduct-operator/pkg/relations"
	"github.com/reductstore/reduct-operator/pkg/supervisor"
	"github.com/reductstore/reduct-operator/pkg/volume"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reduct-operator",
	Short: "Reconciliation controller for a supervised ReductStore workload",
	Long: `reduct-operator converges a declared ReductStore configuration against
the live state of one supervised workload instance. Each invocation rebuilds
the desired state from the declared options, peer relation data, and storage
status, applies the minimal set of remote mutations, and reports a status.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"reduct-operator version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("options", "/etc/reduct-operator/options.yaml", "Declared options file")
	rootCmd.PersistentFlags().String("socket", "/run/supervisor.socket", "Supervisor API unix socket")
	rootCmd.PersistentFlags().String("relations-dir", "/var/lib/reduct-operator", "Relation database directory")
	rootCmd.PersistentFlags().String("storage-attach-path", volume.DefaultAttachPath, "Where the platform attaches storage")
	rootCmd.PersistentFlags().String("storage-mount-path", volume.DefaultMountPath, "Workload data directory")
	rootCmd.PersistentFlags().String("model", "", "Deployment model name")
	rootCmd.PersistentFlags().String("app", "reductstore", "Deployed application name")
	rootCmd.PersistentFlags().String("log-level", "info", "Operator log level")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit JSON logs")

	rootCmd.AddCommand(handleCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(statusCmd)
}

func initLogging(cmd *cobra.Command) {
	level, _ := cmd.Flags().GetString("log-level")
	jsonOut, _ := cmd.Flags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}

// setup builds the controller and its collaborators from the shared flags.
// The returned close function releases the relation store.
func setup(cmd *cobra.Command) (*controller.Controller, func(), error) {
	optionsPath, _ := cmd.Flags().GetString("options")
	socketPath, _ := cmd.Flags().GetString("socket")
	relationsDir, _ := cmd.Flags().GetString("relations-dir")
	attachPath, _ := cmd.Flags().GetString("storage-attach-path")
	mountPath, _ := cmd.Flags().GetString("storage-mount-path")
	model, _ := cmd.Flags().GetString("model")
	app, _ := cmd.Flags().GetString("app")

	opts, err := config.Load(optionsPath)
	if err != nil {
		return nil, nil, err
	}
	opts.ModelName = model
	opts.AppName = app

	store, err := relations.NewBoltStore(relationsDir)
	if err != nil {
		return nil, nil, err
	}

	sup := supervisor.NewClient(socketPath)
	vol := volume.NewLocalManager(attachPath, mountPath)

	readers := &observe.Readers{
		Supervisor:  sup,
		Volume:      vol,
		Relations:   store,
		Service:     "reductstore",
		LicensePath: opts.LicensePath,
	}
	engine := reconciler.NewEngine(sup, vol, store)

	ctrl := controller.New(opts, readers, engine, store)
	return ctrl, func() { store.Close() }, nil
}
